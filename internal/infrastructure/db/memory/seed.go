package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

const day = 24 * time.Hour

// Seed loads the demo catalog and the demo users into store. The first user
// created is the demo commuter whose id the API serves by default.
//
// Priya's balance is reached through ledger rows only: an opening balance
// dated a month back plus her recent history, so balance always equals the
// sum of her transactions.
func Seed(ctx context.Context, store ports.LedgerStore, now time.Time) error {
	return store.WithTx(ctx, func(tx ports.LedgerStore) error {
		if err := seedUsers(ctx, tx, now); err != nil {
			return err
		}
		if err := seedRoutes(ctx, tx, now); err != nil {
			return err
		}
		if err := seedStations(ctx, tx, now); err != nil {
			return err
		}
		return seedRedemptionOptions(ctx, tx)
	})
}

func seedUsers(ctx context.Context, tx ports.LedgerStore, now time.Time) error {
	users := []domain.User{
		{Username: "Priya", Role: domain.RoleCommuter, CreatedAt: now},
		{Username: "BusinessUser", Role: domain.RoleBusiness, CreatedAt: now},
		{Username: "CityPlanner", Role: domain.RoleCityPlanner, CreatedAt: now},
	}
	var created []*domain.User
	for i := range users {
		u, err := tx.CreateUser(ctx, &users[i])
		if err != nil {
			return fmt.Errorf("seed user %s: %w", users[i].Username, err)
		}
		created = append(created, u)
	}

	priya := created[0]
	history := []domain.TokenTransaction{
		{Amount: 260, Description: "Opening balance", Type: domain.TransactionEarned, CreatedAt: now.Add(-30 * day)},
		{Amount: 50, Description: "Used Green Delhi Bus #42", Type: domain.TransactionEarned, CreatedAt: now},
		{Amount: 30, Description: "Took Mumbai Metro to Phoenix Mall", Type: domain.TransactionEarned, CreatedAt: now.Add(-1 * day)},
		{Amount: -100, Description: "Redeemed for Tata Power bill discount", Type: domain.TransactionRedeemed, CreatedAt: now.Add(-3 * day)},
		{Amount: 45, Description: "Charged EV at Delhi Solar Station", Type: domain.TransactionEarned, CreatedAt: now.Add(-7 * day)},
		{Amount: -50, Description: "Redeemed for Chaayos café discount", Type: domain.TransactionRedeemed, CreatedAt: now.Add(-8 * day)},
	}
	var balance int64
	for i := range history {
		history[i].UserID = priya.ID
		if _, err := tx.CreateTokenTransaction(ctx, &history[i]); err != nil {
			return fmt.Errorf("seed transaction: %w", err)
		}
		balance += history[i].Amount
	}

	activities := []domain.ImpactActivity{
		{Title: "Used Green Delhi Bus #42", Description: "Commute to Cyber Hub", CO2Saved: dec("2.4"), Icon: domain.IconCheck, CreatedAt: now.Add(-1 * day)},
		{Title: "Charged EV at Delhi Solar Station", Description: "Near Connaught Place", EnergySaved: dec("8.6"), Icon: domain.IconBolt, CreatedAt: now.Add(-3 * day)},
		{Title: "Optimized route to Phoenix Mall", Description: "Using Mumbai Metro", CO2Saved: dec("1.8"), Icon: domain.IconClock, CreatedAt: now.Add(-7 * day)},
	}
	for i := range activities {
		activities[i].UserID = priya.ID
		if _, err := tx.CreateImpactActivity(ctx, &activities[i]); err != nil {
			return fmt.Errorf("seed activity: %w", err)
		}
	}

	co2, energy := decimal.RequireFromString("42.8"), decimal.RequireFromString("86")
	_, err := tx.UpdateUser(ctx, priya.ID, domain.UserPatch{Tokens: &balance, CO2Saved: &co2, EnergySaved: &energy})
	return err
}

func seedRoutes(ctx context.Context, tx ports.LedgerStore, now time.Time) error {
	routes := []domain.Route{
		{
			Name: "Delhi Office Commute Route", Type: domain.RouteOffice,
			StartLocation: "Connaught Place", EndLocation: "Cyber Hub",
			StartLat: d("28.6289"), StartLng: d("77.2091"), EndLat: d("28.4957"), EndLng: d("77.0881"),
			Duration: "28 min", Distance: d("3.2"), RenewablePercentage: 80, CO2Saved: d("2.4"), Tokens: 50,
			TransportType: "bus", TransportName: "Green Delhi Bus #42", Color: "#16a34a",
		},
		{
			Name: "Mumbai Shopping Route", Type: domain.RouteShopping,
			StartLocation: "Marine Drive", EndLocation: "Phoenix Mall",
			StartLat: d("18.9442"), StartLng: d("72.8237"), EndLat: d("19.0176"), EndLng: d("72.8561"),
			Duration: "18 min", Distance: d("2.1"), RenewablePercentage: 65, CO2Saved: d("1.8"), Tokens: 30,
			TransportType: "tram", TransportName: "Electric Mumbai Metro", Color: "#0ea5e9",
		},
		{
			Name: "Bangalore Tech Park Route", Type: domain.RouteLeisure,
			StartLocation: "MG Road", EndLocation: "Electronic City",
			StartLat: d("12.9716"), StartLng: d("77.5946"), EndLat: d("12.8458"), EndLng: d("77.6612"),
			Duration: "35 min", Distance: d("4.5"), RenewablePercentage: 90, CO2Saved: d("3.2"), Tokens: 65,
			TransportType: "bus", TransportName: "Bangalore EV Bus #17", Color: "#16a34a",
		},
	}
	for i := range routes {
		routes[i].CreatedAt = now
		if _, err := tx.CreateRoute(ctx, &routes[i]); err != nil {
			return fmt.Errorf("seed route: %w", err)
		}
	}
	return nil
}

func seedStations(ctx context.Context, tx ports.LedgerStore, now time.Time) error {
	stations := []domain.ChargingStation{
		{Name: "Delhi Solar Station", Latitude: d("28.6139"), Longitude: d("77.2090"), RenewablePercentage: 85, Available: true, EnergySource: "solar"},
		{Name: "Mumbai Wind Station", Latitude: d("19.0760"), Longitude: d("72.8777"), RenewablePercentage: 65, Available: true, EnergySource: "wind"},
		{Name: "Bangalore Tech Hub Station", Latitude: d("12.9716"), Longitude: d("77.5946"), RenewablePercentage: 80, Available: false, EnergySource: "solar"},
		{Name: "Chennai Central Station", Latitude: d("13.0827"), Longitude: d("80.2707"), RenewablePercentage: 75, Available: true, EnergySource: "solar"},
		{Name: "Hyderabad Eco Station", Latitude: d("17.3850"), Longitude: d("78.4867"), RenewablePercentage: 90, Available: true, EnergySource: "solar"},
	}
	for i := range stations {
		stations[i].CreatedAt = now
		if _, err := tx.CreateStation(ctx, &stations[i]); err != nil {
			return fmt.Errorf("seed station: %w", err)
		}
	}
	return nil
}

func seedRedemptionOptions(ctx context.Context, tx ports.LedgerStore) error {
	options := []domain.RedemptionOption{
		{Title: "10% off your next electricity bill", Description: "Valid for 30 days after redemption", Cost: 100, Category: "utilities", Active: true},
		{Title: "Free public transport day pass", Description: "Valid on all city buses and trams", Cost: 75, Category: "transport", Active: true},
		{Title: "15% discount at GreenEats Café", Description: "Valid for one purchase", Cost: 50, Category: "food", Active: true},
		{Title: "20% off your next electricity bill", Description: "Valid for 30 days after redemption", Cost: 180, Category: "utilities", Active: true},
		{Title: "50% off weekly transport pass", Description: "Valid for one week from activation", Cost: 150, Category: "transport", Active: true},
		{Title: "Free delivery on eco-friendly meal", Description: "From selected restaurants", Cost: 40, Category: "food", Active: true},
	}
	for i := range options {
		if _, err := tx.CreateRedemptionOption(ctx, &options[i]); err != nil {
			return fmt.Errorf("seed redemption option: %w", err)
		}
	}
	return nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dec(s string) *decimal.Decimal {
	v := d(s)
	return &v
}
