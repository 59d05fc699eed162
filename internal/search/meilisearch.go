package search

import (
	"encoding/json"

	"github.com/meilisearch/meilisearch-go"

	"monitoring-portal/internal/models"
)

// IndicatorDocument is the flattened indicator representation stored in
// the search index. Section name is denormalized so M&E staff can search
// by theme.
type IndicatorDocument struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	PBCCode     string  `json:"pbc_code,omitempty"`
	SectionID   uint    `json:"section_id"`
	SectionName string  `json:"section_name,omitempty"`
	Baseline    float64 `json:"baseline"`
	Target      float64 `json:"target"`
}

// NewIndicatorDocument flattens an indicator and its section for indexing.
func NewIndicatorDocument(indicator *models.Indicator, section *models.Section) IndicatorDocument {
	doc := IndicatorDocument{
		ID:      indicator.ID,
		Name:    indicator.Name,
		PBCCode: indicator.PBCCode,
	}
	doc.Baseline, _ = indicator.Baseline.Float64()
	doc.Target, _ = indicator.Target.Float64()
	if section != nil {
		doc.SectionID = section.ID
		doc.SectionName = section.Name
	}
	return doc
}

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "indicators",
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	// Create index if it doesn't exist
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	// Configure searchable attributes
	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"name",
		"pbc_code",
		"section_name",
	})
	if err != nil {
		return err
	}

	// Configure filterable attributes
	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"section_id",
		"pbc_code",
	})
	if err != nil {
		return err
	}

	// Configure sortable attributes
	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"name",
		"target",
	})
	return err
}

// IndexIndicator indexes a single indicator document
func (s *SearchClient) IndexIndicator(doc IndicatorDocument) error {
	_, err := s.client.Index(s.index).AddDocuments([]IndicatorDocument{doc})
	return err
}

// IndexIndicators indexes multiple indicator documents
func (s *SearchClient) IndexIndicators(docs []IndicatorDocument) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(docs)
	return err
}

// DeleteIndicator removes an indicator from the index
func (s *SearchClient) DeleteIndicator(id uint) error {
	_, err := s.client.Index(s.index).DeleteDocument(jsonID(id))
	return err
}

// Search searches indicators by free text, optionally filtered by section.
func (s *SearchClient) Search(query string, sectionID *uint, limit int64) ([]IndicatorDocument, error) {
	if limit == 0 {
		limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit: limit,
	}
	if sectionID != nil {
		searchReq.Filter = "section_id = " + jsonID(*sectionID)
	}

	searchRes, err := s.client.Index(s.index).Search(query, searchReq)
	if err != nil {
		return nil, err
	}

	docs := make([]IndicatorDocument, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		// Convert hit to JSON then to the document struct
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc IndicatorDocument
		if err := json.Unmarshal(hitJSON, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func jsonID(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
