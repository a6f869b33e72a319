// Command seed fills a development REST backend with sample master data by
// signing in and posting through the same client the gateway uses.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/apiclient"
	"github.com/odyssey-erp/backoffice/internal/masterdata/categories"
	"github.com/odyssey-erp/backoffice/internal/masterdata/items"
	"github.com/odyssey-erp/backoffice/internal/masterdata/locations"
	mdshared "github.com/odyssey-erp/backoffice/internal/masterdata/shared"
)

type tokenStore struct {
	mu    sync.Mutex
	creds apiclient.Credentials
}

func (s *tokenStore) Credentials() apiclient.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

func (s *tokenStore) SaveCredentials(_ context.Context, creds apiclient.Credentials) error {
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	return nil
}

func (s *tokenStore) ClearCredentials(context.Context) error {
	return s.SaveCredentials(context.Background(), apiclient.Credentials{})
}

func main() {
	_ = godotenv.Load()
	baseURL := getenv("API_BASE_URL", "http://127.0.0.1:3000/api")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := apiclient.New(baseURL, apiclient.WithTimeout(10*time.Second))
	creds, profile, err := client.Login(ctx, getenv("SEED_EMAIL", "owner@example.com"), getenv("SEED_PASSWORD", "password123"))
	if err != nil {
		log.Fatalf("sign in: %v", err)
	}
	tokens := &tokenStore{creds: creds}
	fmt.Printf("→ Signed in as %s (%s)\n", profile.Email, profile.Role)

	fmt.Println("→ Seeding categories...")
	categoryIDs, err := seed(ctx, apiclient.NewResource[categories.Category](client, tokens, "/"+categories.Name), []categories.CreateForm{
		{Name: "Hardware", Description: "Tools and fixings"},
		{Name: "Garden", Description: "Outdoor supplies"},
		{Name: "Archived", Description: "Discontinued lines", IsHidden: true},
	}, func(c categories.Category) int64 { return c.ID })
	if err != nil {
		log.Fatalf("seed categories: %v", err)
	}

	fmt.Println("→ Seeding locations...")
	locationIDs, err := seed(ctx, apiclient.NewResource[locations.Location](client, tokens, "/"+locations.Name), []locations.CreateForm{
		{Name: "Main Warehouse", Address: "12 Dock Road", City: "Springfield", Phone: "5551234567"},
		{Name: "City Store", Address: "4 High Street", City: "Shelbyville", Phone: "(555) 765-4321"},
	}, func(l locations.Location) int64 { return l.ID })
	if err != nil {
		log.Fatalf("seed locations: %v", err)
	}

	fmt.Println("→ Seeding items...")
	var forms []items.CreateForm
	for i := 1; i <= 24; i++ {
		forms = append(forms, items.CreateForm{
			SKU:        "sku-" + strconv.Itoa(1000+i),
			Name:       fmt.Sprintf("Sample item %02d", i),
			CategoryID: categoryIDs[i%len(categoryIDs)],
			Price:      decimal.NewFromInt(int64(i)).Mul(decimal.RequireFromString("2.25")),
			Quantity:   int64(i * 3),
			LocationID: locationIDs[i%len(locationIDs)],
		})
	}
	if _, err := seed(ctx, apiclient.NewResource[items.Item](client, tokens, "/"+items.Name), forms, func(items.Item) int64 { return 0 }); err != nil {
		log.Fatalf("seed items: %v", err)
	}

	if err := client.Logout(ctx, tokens); err != nil {
		log.Printf("sign out: %v", err)
	}
	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

type form[E any] interface {
	Entity() E
}

// seed validates every form before the first request so a bad fixture never
// leaves the backend half seeded.
func seed[E any, F form[E]](ctx context.Context, res *apiclient.Resource[E], forms []F, id func(E) int64) ([]int64, error) {
	for i, f := range forms {
		if err := mdshared.ValidateForm(f); err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
	}
	ids := make([]int64, 0, len(forms))
	for _, f := range forms {
		created, err := res.Create(ctx, f.Entity())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id(created))
	}
	return ids, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
