package models

import "fmt"

// Kind names one of the two parallel record collections.
type Kind string

const (
	KindSupply Kind = "supply"
	KindDemand Kind = "demand"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSupply, KindDemand:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// Opposite returns the collection a record of this kind is matched against.
func (k Kind) Opposite() Kind {
	if k == KindSupply {
		return KindDemand
	}
	return KindSupply
}

// IDField is the projection field that carries the record id.
func (k Kind) IDField() string {
	if k == KindDemand {
		return "request_id"
	}
	return "property_id"
}

// NewRecord returns an empty record of the given kind, ready for GORM scans.
func NewRecord(k Kind) Record {
	if k == KindDemand {
		return &DemandRecord{}
	}
	return &SupplyRecord{}
}
