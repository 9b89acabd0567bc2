package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

func keywordFieldMapping() *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = keyword.Name
	fm.Store = true
	fm.Index = true
	fm.IncludeInAll = false
	return fm
}

func textFieldMapping() *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = en.AnalyzerName
	fm.Store = true
	fm.Index = true
	fm.IncludeInAll = true
	return fm
}

func storedOnlyFieldMapping() *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Store = true
	fm.Index = false
	fm.IncludeInAll = false
	return fm
}

func dateTimeFieldMapping() *mapping.FieldMapping {
	fm := bleve.NewDateTimeFieldMapping()
	fm.Store = true
	fm.Index = true
	fm.IncludeInAll = false
	return fm
}

// buildDocumentMapping declares how skill documents are analyzed. Identity
// fields use the keyword analyzer for exact matching, prose fields use the
// english analyzer, and the checksum is stored without being indexed so
// incremental sync can read it back.
func buildDocumentMapping() *mapping.DocumentMapping {
	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false

	doc.AddFieldMappingsAt("key", keywordFieldMapping())
	doc.AddFieldMappingsAt("path", keywordFieldMapping())
	doc.AddFieldMappingsAt("category", keywordFieldMapping())
	doc.AddFieldMappingsAt("slug", keywordFieldMapping())
	doc.AddFieldMappingsAt("license", keywordFieldMapping())
	doc.AddFieldMappingsAt("author", keywordFieldMapping())

	doc.AddFieldMappingsAt("name", textFieldMapping())
	doc.AddFieldMappingsAt("description", textFieldMapping())
	doc.AddFieldMappingsAt("sections", textFieldMapping())
	doc.AddFieldMappingsAt("body", textFieldMapping())

	doc.AddFieldMappingsAt("checksum", storedOnlyFieldMapping())

	doc.AddFieldMappingsAt("modified_at", dateTimeFieldMapping())
	doc.AddFieldMappingsAt("indexed_at", dateTimeFieldMapping())

	return doc
}

// BuildIndexMapping returns the index mapping for skill documents.
func BuildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = en.AnalyzerName
	im.DefaultMapping = buildDocumentMapping()
	return im
}
