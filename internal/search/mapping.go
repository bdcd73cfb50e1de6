package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for list documents.
// Titles and explanations get English stemming; author names use the simple
// analyzer so surnames are not stemmed.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Title - primary search target
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	authorFieldMapping := bleve.NewTextFieldMapping()
	authorFieldMapping.Analyzer = simple.Name
	authorFieldMapping.Store = true
	authorFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("author", authorFieldMapping)

	// Explanation - searchable but not stored (can be long)
	explanationFieldMapping := bleve.NewTextFieldMapping()
	explanationFieldMapping.Analyzer = en.AnalyzerName
	explanationFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("explanation", explanationFieldMapping)

	// --- Keyword fields ---

	kindFieldMapping := bleve.NewTextFieldMapping()
	kindFieldMapping.Analyzer = keyword.Name
	kindFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("kind", kindFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	dateFieldMapping := bleve.NewTextFieldMapping()
	dateFieldMapping.Analyzer = keyword.Name
	dateFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("date", dateFieldMapping)

	// --- Numeric fields ---

	ratingFieldMapping := bleve.NewNumericFieldMapping()
	ratingFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("rating", ratingFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
