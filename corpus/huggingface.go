package corpus

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// HuggingFace reads a dataset through the Hugging Face datasets-server REST API.
type HuggingFace struct {
	httpClient *http.Client
	endpoint   string
	dataset    string
	config     string
	token      string
	pageSize   int
}

type HuggingFaceOption func(*HuggingFace)

func WithHTTPClient(client *http.Client) HuggingFaceOption {
	return func(h *HuggingFace) {
		h.httpClient = client
	}
}

func WithEndpoint(endpoint string) HuggingFaceOption {
	return func(h *HuggingFace) {
		h.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithDatasetConfig pins the dataset config. By default the config of the
// first listed split is used.
func WithDatasetConfig(config string) HuggingFaceOption {
	return func(h *HuggingFace) {
		h.config = config
	}
}

func WithToken(token string) HuggingFaceOption {
	return func(h *HuggingFace) {
		h.token = token
	}
}

// WithPageSize sets the rows fetched per request. The server caps it at 100.
func WithPageSize(n int) HuggingFaceOption {
	return func(h *HuggingFace) {
		h.pageSize = n
	}
}

// NewHuggingFace creates a source for dataset, e.g. "adesouza1/soap_notes".
func NewHuggingFace(dataset string, opts ...HuggingFaceOption) *HuggingFace {
	h := &HuggingFace{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   "https://datasets-server.huggingface.co",
		dataset:    dataset,
		pageSize:   100,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HuggingFace) Name() string {
	return "huggingface:" + h.dataset
}

type hfSplit struct {
	Dataset string `json:"dataset"`
	Config  string `json:"config"`
	Split   string `json:"split"`
}

type hfSplitsResponse struct {
	Splits []hfSplit `json:"splits"`
}

type hfRow struct {
	RowIdx         int      `json:"row_idx"`
	Row            Record   `json:"row"`
	TruncatedCells []string `json:"truncated_cells"`
}

type hfRowsResponse struct {
	Rows         []hfRow `json:"rows"`
	NumRowsTotal int     `json:"num_rows_total"`
}

// Partitions lists the splits of the selected config and pages through every
// row of each, in the order the server lists them.
func (h *HuggingFace) Partitions(ctx context.Context) ([]Partition, error) {
	var splits hfSplitsResponse
	if err := h.get(ctx, "/splits", url.Values{"dataset": {h.dataset}}, &splits); err != nil {
		return nil, goerr.Wrap(err, "failed to list dataset splits", goerr.V("dataset", h.dataset))
	}
	if len(splits.Splits) == 0 {
		return nil, goerr.New("dataset has no splits", goerr.V("dataset", h.dataset))
	}

	config := h.config
	if config == "" {
		config = splits.Splits[0].Config
	}

	var partitions []Partition
	for _, s := range splits.Splits {
		if s.Config != config {
			continue
		}
		records, err := h.fetchSplit(ctx, config, s.Split)
		if err != nil {
			return nil, err
		}
		partitions = append(partitions, Partition{Name: s.Split, Records: records})
	}
	if len(partitions) == 0 {
		return nil, goerr.New("dataset config has no splits", goerr.V("dataset", h.dataset), goerr.V("config", config))
	}
	return partitions, nil
}

func (h *HuggingFace) fetchSplit(ctx context.Context, config, split string) ([]Record, error) {
	var records []Record
	for offset := 0; ; {
		query := url.Values{
			"dataset": {h.dataset},
			"config":  {config},
			"split":   {split},
			"offset":  {strconv.Itoa(offset)},
			"length":  {strconv.Itoa(h.pageSize)},
		}

		var page hfRowsResponse
		if err := h.get(ctx, "/rows", query, &page); err != nil {
			return nil, goerr.Wrap(err, "failed to fetch dataset rows",
				goerr.V("split", split), goerr.V("offset", offset))
		}
		if records == nil {
			records = make([]Record, 0, page.NumRowsTotal)
		}

		for _, row := range page.Rows {
			if len(row.TruncatedCells) > 0 {
				return nil, goerr.New("dataset row has truncated cells",
					goerr.V("split", split), goerr.V("row", row.RowIdx), goerr.V("cells", row.TruncatedCells))
			}
			records = append(records, row.Row)
		}

		offset += len(page.Rows)
		if len(page.Rows) == 0 || offset >= page.NumRowsTotal {
			break
		}
	}
	return records, nil
}

func (h *HuggingFace) get(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := h.endpoint + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to create datasets-server request")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to call datasets-server", goerr.V("path", path))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return goerr.New("datasets-server returned non-200 status",
			goerr.V("path", path), goerr.V("status", resp.StatusCode), goerr.V("body", string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode datasets-server response", goerr.V("path", path))
	}
	return nil
}
