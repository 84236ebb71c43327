package compare

import (
	"testing"

	"github.com/stretchr/testify/require"

	"DealSentinel/internal/model"
)

func TestCandidates(t *testing.T) {
	flight := &model.CashFlight{
		Flight:    model.Flight{Origin: "MSP", Destination: "CUN", DepartureDate: start, ReturnDate: end},
		PriceCash: 1300,
	}
	expired := &model.CashHotel{
		Stay:      model.Stay{Destination: "SJD", PropertyName: "Old", CheckIn: start, CheckOut: end},
		OfferMeta: model.OfferMeta{Status: model.TierExpired},
	}
	pkg := hotelPackage("PUJ", 200, 5900)

	got := Candidates([]*model.StoredDeal{
		{Key: "f", Kind: model.DealOffer, Offer: flight},
		{Key: "h", Kind: model.DealOffer, Offer: expired},
		{Key: "p", Kind: model.DealPackage, Package: pkg},
	})
	require.Len(t, got, 2)
	require.Equal(t, "CUN", got[0].Destination)
	require.Same(t, flight, got[0].Flight)
	require.Nil(t, got[0].Hotel)
	require.Equal(t, start, got[0].StartDate)
	require.Same(t, pkg, got[1])
}
