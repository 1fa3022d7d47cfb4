package models

// Metadata describes the source record of an indexed Document and carries its
// ground-truth SOAP note.
type Metadata struct {
	Split         string `json:"split" yaml:"split"`
	Index         int    `json:"index" yaml:"index"`
	PatientName   string `json:"patient_name" yaml:"patient_name"`
	HealthProblem string `json:"health_problem" yaml:"health_problem"`
	SOAPNotes     string `json:"soap_notes" yaml:"soap_notes"`
}

// Document is a single indexed conversation together with its metadata.
type Document struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Corpus holds every loaded Document as two parallel sequences. Texts[i] and
// Metadatas[i] always refer to the same source record.
type Corpus struct {
	Texts     []string
	Metadatas []Metadata
}

// Append adds one record to the end of the corpus.
func (c *Corpus) Append(text string, meta Metadata) {
	c.Texts = append(c.Texts, text)
	c.Metadatas = append(c.Metadatas, meta)
}

// Len returns the number of documents in the corpus.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Texts)
}

// Document returns the i-th document.
func (c *Corpus) Document(i int) Document {
	return Document{Text: c.Texts[i], Metadata: c.Metadatas[i]}
}

// RetrievedDocument is a Document returned by a similarity query.
// Rank starts at 1 for the nearest document.
type RetrievedDocument struct {
	Document
	Rank  int     `json:"rank"`
	Score float64 `json:"score"`
}

// RetrievedSet is an ordered, nearest-first sequence of retrieved documents.
type RetrievedSet []RetrievedDocument

// Notes returns the SOAP notes of the retrieved documents in rank order.
func (s RetrievedSet) Notes() []string {
	notes := make([]string, 0, len(s))
	for _, d := range s {
		notes = append(notes, d.Metadata.SOAPNotes)
	}
	return notes
}
