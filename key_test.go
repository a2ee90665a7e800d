package inject_test

import (
	"reflect"
	"testing"

	"github.com/kdpb/inject"
	"github.com/stretchr/testify/assert"
)

type MongoDatabase struct{}

type DocumentsUploadCommand struct{}

type Cache[T any] struct{ items map[string]T }

type DocumentStore interface {
	Get(id string) (string, error)
}

func TestDeriveKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected inject.Key
	}{
		{"pascal case", "MongoDatabase", "mongo_database"},
		{"three words", "DocumentsUploadCommand", "documents_upload_command"},
		{"single word", "Logger", "logger"},
		{"camel case", "mongoDatabase", "mongo_database"},
		{"already lower", "settings", "settings"},
		{"acronym splits per letter", "HTTPClient", "h_t_t_p_client"},
		{"digits stay attached", "Worker2Pool", "worker2_pool"},
		{"single rune", "A", "a"},
		{"empty falls back", "", "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, inject.DeriveKey(tt.input))
		})
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"MongoDatabase", "X", "aB", "ÄrgerMacher"} {
		first := inject.DeriveKey(name)
		assert.NotEmpty(t, first)
		assert.Equal(t, first, inject.DeriveKey(name))
	}
}

func TestKeyFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		typ      reflect.Type
		expected inject.Key
	}{
		{"struct", reflect.TypeOf(MongoDatabase{}), "mongo_database"},
		{"pointer", reflect.TypeOf(&MongoDatabase{}), "mongo_database"},
		{"double pointer", reflect.TypeOf((**MongoDatabase)(nil)), "mongo_database"},
		{"slice of pointers", reflect.TypeOf([]*DocumentsUploadCommand{}), "documents_upload_command"},
		{"interface", reflect.TypeOf((*DocumentStore)(nil)).Elem(), "document_store"},
		{"generic drops type arguments", reflect.TypeOf(&Cache[string]{}), "cache"},
		{"builtin", reflect.TypeOf(""), "string"},
		{"map", reflect.TypeOf(map[string]int{}), "map_string_int"},
		{"anonymous struct", reflect.TypeOf(struct{}{}), "struct"},
		{"nil", nil, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, inject.KeyFor(tt.typ))
		})
	}
}

func TestKeyOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, inject.Key("mongo_database"), inject.KeyOf[*MongoDatabase]())
	assert.Equal(t, inject.Key("document_store"), inject.KeyOf[DocumentStore]())
	assert.Equal(t, "mongo_database", inject.KeyOf[MongoDatabase]().String())
}
