package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DealKind says what a StoredDeal holds.
type DealKind string

const (
	DealOffer   DealKind = "offer"
	DealPackage DealKind = "package"
)

// StoredDeal is a persisted offer or package under its identity key.
// Exactly one of Offer and Package is set.
type StoredDeal struct {
	Key       string
	Kind      DealKind
	Offer     Offer
	Package   *TripPackage
	UpdatedAt time.Time
}

// Status returns the tier of the stored item.
func (d *StoredDeal) Status() QualityTier {
	if d.Offer != nil {
		return d.Offer.Common().Status
	}
	if d.Package != nil {
		return d.Package.Status
	}
	return ""
}

// SetStatus overwrites the tier of the stored item.
func (d *StoredDeal) SetStatus(t QualityTier) {
	if d.Offer != nil {
		d.Offer.Common().Status = t
	}
	if d.Package != nil {
		d.Package.Status = t
	}
}

// FoundAt returns when the item was observed.
func (d *StoredDeal) FoundAt() time.Time {
	if d.Offer != nil {
		return d.Offer.Common().FoundAt
	}
	if d.Package != nil {
		return d.Package.FoundAt
	}
	return time.Time{}
}

// Destination returns the destination of the stored item.
func (d *StoredDeal) Destination() string {
	if d.Offer != nil {
		return d.Offer.Location()
	}
	if d.Package != nil {
		return d.Package.Destination
	}
	return ""
}

// TypeName is the offer kind, or "package".
func (d *StoredDeal) TypeName() string {
	if d.Offer != nil {
		return string(d.Offer.Kind())
	}
	return string(DealPackage)
}

// Clone returns a deep copy.
func (d *StoredDeal) Clone() *StoredDeal {
	c := *d
	if d.Offer != nil {
		c.Offer = d.Offer.Clone()
	}
	if d.Package != nil {
		c.Package = d.Package.Clone()
	}
	return &c
}

type storedDealJSON struct {
	Key       string         `json:"key"`
	Kind      DealKind       `json:"kind"`
	Offer     *OfferEnvelope `json:"offer,omitempty"`
	Package   *TripPackage   `json:"package,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (d StoredDeal) MarshalJSON() ([]byte, error) {
	out := storedDealJSON{Key: d.Key, Kind: d.Kind, Package: d.Package, UpdatedAt: d.UpdatedAt}
	if d.Offer != nil {
		out.Offer = &OfferEnvelope{Offer: d.Offer}
	}
	return json.Marshal(out)
}

func (d *StoredDeal) UnmarshalJSON(b []byte) error {
	var in storedDealJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*d = StoredDeal{Key: in.Key, Kind: in.Kind, Package: in.Package, UpdatedAt: in.UpdatedAt}
	if in.Offer != nil {
		d.Offer = in.Offer.Offer
	}
	if d.Offer == nil && d.Package == nil {
		return fmt.Errorf("stored deal %q holds neither offer nor package", in.Key)
	}
	return nil
}

// AlertRecord is the throttle state of one deal key.
type AlertRecord struct {
	Key       string      `json:"key"`
	LastAlert time.Time   `json:"last_alert"`
	AlertType QualityTier `json:"alert_type"`
	Count     int         `json:"count"`
}
