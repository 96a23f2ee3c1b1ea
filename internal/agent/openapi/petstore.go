package openapi

import (
	_ "embed"
)

// PetStoreToolsetName is the registry name of the built-in Pet Store toolset.
const PetStoreToolsetName = "petstore"

// DataToolsetName is the registry name of the data-generator toolset.
const DataToolsetName = "data"

//go:embed petstore.json
var petStoreDocument []byte

// PetStoreDocument returns the built-in Pet Store OpenAPI document.
func PetStoreDocument() []byte {
	return petStoreDocument
}

// LoadPetStore builds the Pet Store toolset.
func LoadPetStore(opts Options) (*Toolset, error) {
	return Load(PetStoreToolsetName, petStoreDocument, TypeJSON, opts)
}
