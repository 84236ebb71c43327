package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"DealSentinel/internal/model"
)

// Summary is an aggregate view over every stored deal.
type Summary struct {
	TotalDeals    int                       `json:"total_deals"`
	ByStatus      map[model.QualityTier]int `json:"by_status"`
	ByDestination map[string]int            `json:"by_destination"`
	ByType        map[string]int            `json:"by_type"`
	Excellent     int                       `json:"excellent_count"`
	Good          int                       `json:"good_count"`
}

// Summary counts deals by status, destination and type.
func (s *Store) Summary() (Summary, error) {
	deals, err := s.List("")
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{
		TotalDeals:    len(deals),
		ByStatus:      map[model.QualityTier]int{},
		ByDestination: map[string]int{},
		ByType:        map[string]int{},
	}
	for _, d := range deals {
		status := d.Status()
		sum.ByStatus[status]++
		sum.ByType[d.TypeName()]++
		dest := d.Destination()
		if dest == "" {
			dest = "unknown"
		}
		sum.ByDestination[dest]++
	}
	sum.Excellent = sum.ByStatus[model.TierExcellent]
	sum.Good = sum.ByStatus[model.TierGood]
	return sum, nil
}

// csvHeader is the column order of ExportCSV.
var csvHeader = []string{
	"key", "type", "destination", "departure_date", "return_date",
	"price_cash", "price_points", "cpp_value", "status",
	"airline", "property_name", "source", "found_at",
}

// ExportCSV writes every deal as one row, sorted by key.
func (s *Store) ExportCSV(w io.Writer) error {
	deals, err := s.List("")
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, d := range deals {
		if err := cw.Write(csvRow(d)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(d *model.StoredDeal) []string {
	var (
		start, end    model.Date
		cash          float64
		points        int64
		cpp           string
		airline, prop string
		source        string
		foundAt       time.Time
	)
	switch {
	case d.Offer != nil:
		o := d.Offer
		meta := o.Common()
		start, end = o.Period()
		source, foundAt = meta.Source, meta.FoundAt
		if meta.Metrics.CPP != nil {
			cpp = strconv.FormatFloat(*meta.Metrics.CPP, 'f', 2, 64)
		}
		switch v := o.(type) {
		case *model.CashFlight:
			cash = v.PriceCash
		case *model.AwardFlight:
			points = v.PricePoints
		case *model.CashHotel:
			cash = v.TotalCash()
		case *model.AllInclusiveHotel:
			cash = v.TotalCash()
		case *model.PointsHotel:
			points = v.TotalPricePoints
		}
		if f, ok := o.(model.FlightOffer); ok {
			airline = f.Route().Airline
		}
		if h, ok := o.(model.HotelOffer); ok {
			prop = h.Lodging().PropertyName
		}
	case d.Package != nil:
		p := d.Package
		start, end = p.StartDate, p.EndDate
		cash, points = p.Totals.TotalCashCost, p.Totals.TotalPointsUsed
		source, foundAt = p.Source, p.FoundAt
	}

	row := []string{
		d.Key, d.TypeName(), d.Destination(), start.String(), end.String(),
		"", "", cpp, string(d.Status()),
		airline, prop, source, "",
	}
	if cash > 0 {
		row[5] = strconv.FormatFloat(cash, 'f', 2, 64)
	}
	if points > 0 {
		row[6] = strconv.FormatInt(points, 10)
	}
	if !foundAt.IsZero() {
		row[12] = foundAt.Format(time.RFC3339)
	}
	return row
}

// String renders a one-line summary for logs and chat replies.
func (s Summary) String() string {
	return fmt.Sprintf("%d deals (%d excellent, %d good)", s.TotalDeals, s.Excellent, s.Good)
}
