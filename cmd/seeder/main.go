package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/nomadland/nomadland/internal/config"
	"github.com/nomadland/nomadland/internal/database"
	"github.com/nomadland/nomadland/internal/models"
)

// RegionSeed is one demo region with its starter points and events
type RegionSeed struct {
	Name        string
	Slug        string
	Country     string
	Description string
	Boundary    [][2]float64
	Points      []PointSeed
	Events      []EventSeed
}

// PointSeed is a demo point of interest
type PointSeed struct {
	Name        string
	Description string
	Category    string
	Lat, Lng    float64
}

// EventSeed is a demo event template
type EventSeed struct {
	Title       string
	Description string
	Language    string
	StartDate   string
	EndDate     string
	Time        string
	AllDay      bool
	Repeat      models.RepeatRule
	RepeatDays  []int
	Lat, Lng    float64
}

func main() {
	dryRun := flag.Bool("dry-run", false, "Preview changes without writing to database")
	regionFilter := flag.String("region", "", "Only seed the region with this slug")
	flag.Parse()

	// Load .env
	godotenv.Load()

	// Load config
	cfg := config.Load()

	seeds := demoRegions()
	if *regionFilter != "" {
		var filtered []RegionSeed
		for _, r := range seeds {
			if r.Slug == *regionFilter {
				filtered = append(filtered, r)
			}
		}
		if len(filtered) == 0 {
			log.Fatalf("No demo region with slug %q", *regionFilter)
		}
		seeds = filtered
	}

	if *dryRun {
		log.Println("DRY RUN - No changes will be made")
		for _, r := range seeds {
			log.Printf("  region %q (%s): %d boundary vertices, %d points, %d events",
				r.Name, r.Country, len(r.Boundary), len(r.Points), len(r.Events))
		}
		return
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations so the seeder works on a fresh database
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Seeding demo data...")

	regions, points, events := 0, 0, 0
	for _, seed := range seeds {
		regionID, err := upsertRegion(db, &seed)
		if err != nil {
			log.Fatalf("Failed to seed region %q: %v", seed.Name, err)
		}
		regions++

		for _, p := range seed.Points {
			if err := upsertPoint(db, regionID, &p); err != nil {
				log.Fatalf("Failed to seed point %q: %v", p.Name, err)
			}
			points++
		}

		for _, e := range seed.Events {
			if err := upsertEvent(db, regionID, &e); err != nil {
				log.Fatalf("Failed to seed event %q: %v", e.Title, err)
			}
			events++
		}
	}

	log.Printf("Seed complete: %d regions, %d points, %d events", regions, points, events)
}

// upsertRegion inserts the region or refreshes it when the slug exists
func upsertRegion(db *database.DB, seed *RegionSeed) (int, error) {
	boundary, err := json.Marshal(seed.Boundary)
	if err != nil {
		return 0, fmt.Errorf("failed to encode boundary: %w", err)
	}

	var id int
	err = db.Pool.QueryRow(context.Background(), `
		INSERT INTO regions (name, slug, country, description, boundary)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			country = EXCLUDED.country,
			description = EXCLUDED.description,
			boundary = EXCLUDED.boundary,
			updated_at = NOW()
		RETURNING id
	`, seed.Name, seed.Slug, seed.Country, seed.Description, boundary).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// upsertPoint inserts a point unless one with the same name already exists
// in the region. Seeded points go straight to active status.
func upsertPoint(db *database.DB, regionID int, seed *PointSeed) error {
	_, err := db.Pool.Exec(context.Background(), `
		INSERT INTO points (name, description, category, latitude, longitude, region_id, status)
		SELECT $1, $2, $3, $4, $5, $6, 'active'
		WHERE NOT EXISTS (
			SELECT 1 FROM points WHERE name = $1 AND region_id = $6
		)
	`, seed.Name, seed.Description, seed.Category, seed.Lat, seed.Lng, regionID)
	return err
}

// upsertEvent inserts an event template unless one with the same title
// already exists in the region
func upsertEvent(db *database.DB, regionID int, seed *EventSeed) error {
	repeatDays := seed.RepeatDays
	if repeatDays == nil {
		repeatDays = []int{}
	}

	var eventTime *string
	if seed.Time != "" {
		eventTime = &seed.Time
	}

	_, err := db.Pool.Exec(context.Background(), `
		INSERT INTO events (title, description, language, region_id, status,
			start_date, end_date, event_time, all_day, repeat, repeat_days,
			latitude, longitude)
		SELECT $1, $2, $3, $4, 'active', $5, $6, $7, $8, $9, $10, $11, $12
		WHERE NOT EXISTS (
			SELECT 1 FROM events WHERE title = $1 AND region_id = $4
		)
	`, seed.Title, seed.Description, seed.Language, regionID,
		seed.StartDate, seed.EndDate, eventTime, seed.AllDay,
		seed.Repeat, repeatDays, seed.Lat, seed.Lng)
	return err
}

// demoRegions returns a small set of popular nomad destinations with rough
// boundary rings, enough to exercise maps, containment checks and the event
// calendar out of the box.
func demoRegions() []RegionSeed {
	return []RegionSeed{
		{
			Name:        "Pai Valley",
			Slug:        "pai-valley",
			Country:     "Thailand",
			Description: "Mountain town in northern Thailand, a long-time backpacker and slow-travel base.",
			Boundary: [][2]float64{
				{98.40, 19.30}, {98.48, 19.32}, {98.50, 19.38},
				{98.45, 19.43}, {98.38, 19.41}, {98.36, 19.34},
			},
			Points: []PointSeed{
				{"Pai Canyon", "Narrow sandstone ridges with sunset views.", "nature", 19.3386, 98.4233},
				{"Tha Pai Hot Springs", "Natural hot pools south of town.", "nature", 19.3312, 98.4660},
				{"Walking Street Night Market", "Evening food stalls along Chaisongkram Road.", "food", 19.3591, 98.4404},
			},
			Events: []EventSeed{
				{
					Title:       "Sunset jam at the canyon",
					Description: "Acoustic instruments welcome, bring water.",
					Language:    "en",
					StartDate:   "2026-09-01", EndDate: "2026-12-31",
					Time:   "17:30",
					Repeat: models.RepeatWeekly, RepeatDays: []int{2, 5},
					Lat: 19.3386, Lng: 98.4233,
				},
				{
					Title:       "Thai cooking class",
					Description: "Market visit then a four-dish menu.",
					Language:    "en",
					StartDate:   "2026-09-05", EndDate: "2027-03-05",
					Time:   "10:00",
					Repeat: models.RepeatMonthly,
					Lat:    19.3591, Lng: 98.4404,
				},
			},
		},
		{
			Name:        "Lake Atitlán",
			Slug:        "lake-atitlan",
			Country:     "Guatemala",
			Description: "Volcanic crater lake ringed by Mayan villages in the Guatemalan highlands.",
			Boundary: [][2]float64{
				{-91.32, 14.60}, {-91.12, 14.60}, {-91.08, 14.68},
				{-91.15, 14.78}, {-91.30, 14.76}, {-91.35, 14.68},
			},
			Points: []PointSeed{
				{"San Marcos dock", "Ferry dock for the northern villages.", "other", 14.7250, -91.2614},
				{"Indian Nose viewpoint", "Sunrise hike above San Juan.", "viewpoint", 14.7130, -91.3000},
				{"Café Loco", "Korean-run specialty coffee in Panajachel.", "food", 14.7410, -91.1586},
			},
			Events: []EventSeed{
				{
					Title:       "Lakeside language exchange",
					Description: "Spanish, English and Kaqchikel tables.",
					Language:    "es",
					StartDate:   "2026-09-03", EndDate: "2026-11-26",
					Time:   "18:00",
					Repeat: models.RepeatWeekly, RepeatDays: []int{4},
					Lat: 14.7410, Lng: -91.1586,
				},
				{
					Title:       "New moon lake swim",
					Description: "Meet at the San Marcos dock.",
					Language:    "en",
					StartDate:   "2026-09-11", EndDate: "2026-09-11",
					AllDay:      true,
					Repeat:      models.RepeatNone,
					Lat:         14.7250, Lng: -91.2614,
				},
			},
		},
		{
			Name:        "Canggu",
			Slug:        "canggu",
			Country:     "Indonesia",
			Description: "Surf and coworking hub on Bali's southwest coast.",
			Boundary: [][2]float64{
				{115.10, -8.68}, {115.17, -8.68}, {115.18, -8.63},
				{115.13, -8.60}, {115.08, -8.62},
			},
			Points: []PointSeed{
				{"Batu Bolong Beach", "Mellow longboard break.", "beach", -8.6594, 115.1305},
				{"Tanah Lot Temple", "Sea temple on a rock shelf, crowded at sunset.", "culture", -8.6212, 115.0868},
				{"Crate Café", "Big breakfasts, opens at 6am.", "food", -8.6478, 115.1385},
			},
			Events: []EventSeed{
				{
					Title:       "Dawn patrol surf meetup",
					Description: "All levels, boards for rent next door.",
					Language:    "en",
					StartDate:   "2026-09-01", EndDate: "2027-08-31",
					Time:   "06:00",
					Repeat: models.RepeatDaily,
					Lat:    -8.6594, Lng: 115.1305,
				},
			},
		},
	}
}
