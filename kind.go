package inject

import (
	"encoding/json"
	"fmt"
)

// ProviderKind specifies how a binding constructs and reuses instances.
type ProviderKind int

const (
	// Singleton constructs one instance per container, lazily, on the first
	// resolution. Every later resolution returns the same instance.
	Singleton ProviderKind = iota

	// Factory constructs a new instance on every resolution.
	Factory
)

// String returns the string representation of the ProviderKind.
func (k ProviderKind) String() string {
	switch k {
	case Singleton:
		return "Singleton"
	case Factory:
		return "Factory"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// IsValid checks if the provider kind is valid.
func (k ProviderKind) IsValid() bool {
	return k >= Singleton && k <= Factory
}

// MarshalText implements encoding.TextMarshaler.
func (k ProviderKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ProviderKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Singleton", "singleton":
		*k = Singleton
	case "Factory", "factory":
		*k = Factory
	default:
		return ProviderKindError{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (k ProviderKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *ProviderKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	return k.UnmarshalText([]byte(s))
}
