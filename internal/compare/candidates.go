package compare

import "DealSentinel/internal/model"

// Candidates collects the stored deals worth comparing: every package, plus
// each standalone offer wrapped as a single-component package. Expired deals
// are skipped.
func Candidates(deals []*model.StoredDeal) []*model.TripPackage {
	var out []*model.TripPackage
	for _, d := range deals {
		if d.Status() == model.TierExpired {
			continue
		}
		if d.Package != nil {
			out = append(out, d.Package)
			continue
		}
		start, end := d.Offer.Period()
		p := &model.TripPackage{
			Destination: d.Offer.Location(),
			StartDate:   start,
			EndDate:     end,
			FoundAt:     d.Offer.Common().FoundAt,
			Source:      d.Offer.Common().Source,
		}
		switch o := d.Offer.(type) {
		case model.FlightOffer:
			p.Flight = o
		case model.HotelOffer:
			p.Hotel = o
		default:
			continue
		}
		out = append(out, p)
	}
	return out
}
