package model

// GenericRecord is a schema-agnostic map for any data source
type GenericRecord map[string]interface{}
