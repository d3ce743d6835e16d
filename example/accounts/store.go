package accounts

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// User is an account
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// NodeID implements Node
func (u *User) NodeID() string { return u.ID }

// Product is owned by the products service. Only its key and the fields
// this service knows about are kept here.
type Product struct {
	UPC   string `json:"upc"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// Review links an author to a product
type Review struct {
	ID         string `json:"id"`
	Body       string `json:"body"`
	AuthorID   string `json:"author_id"`
	ProductUPC string `json:"product_upc"`
}

// NodeID implements Node
func (r *Review) NodeID() string { return r.ID }

// Node is implemented by values with a global id
type Node interface {
	NodeID() string
}

// Store is an in-memory backing store. Every batch read is counted so tests
// can assert on batching.
type Store struct {
	users    map[string]*User
	products map[string]*Product
	reviews  []*Review
	me       string

	mu    sync.Mutex
	reads map[string][][]string
}

// NewStore returns a store seeded with sample data
func NewStore() *Store {
	s := &Store{
		users:    make(map[string]*User),
		products: make(map[string]*Product),
		reads:    make(map[string][][]string),
		me:       "1",
	}
	for _, u := range []*User{
		{ID: "1", Name: "Ada Lovelace", Username: "ada"},
		{ID: "2", Name: "Alan Turing", Username: "alan"},
		{ID: "42", Name: "Grace Hopper", Username: "grace"},
	} {
		s.users[u.ID] = u
	}
	for _, p := range []*Product{
		{UPC: "1", Name: "Table", Price: 899},
		{UPC: "2", Name: "Couch", Price: 1299},
		{UPC: "3", Name: "Chair", Price: 54},
	} {
		s.products[p.UPC] = p
	}
	s.reviews = []*Review{
		{ID: "r1", Body: "Love it!", AuthorID: "1", ProductUPC: "1"},
		{ID: "r2", Body: "Too expensive.", AuthorID: "1", ProductUPC: "2"},
		{ID: "r3", Body: "Could be better.", AuthorID: "2", ProductUPC: "3"},
		{ID: "r4", Body: "Prefer something else.", AuthorID: "42", ProductUPC: "1"},
	}
	return s
}

func (s *Store) record(table string, keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[table] = append(s.reads[table], append([]string(nil), keys...))
}

// Reads returns the key batches read from table, in call order
func (s *Store) Reads(table string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.reads[table]...)
}

// Me returns the id of the signed-in user
func (s *Store) Me() string { return s.me }

// UsersByID returns one entry per id, nil where the user does not exist
func (s *Store) UsersByID(_ context.Context, ids []string) ([]any, error) {
	s.record("users", ids)
	out := make([]any, len(ids))
	for i, id := range ids {
		if u, ok := s.users[id]; ok {
			out[i] = u
		}
	}
	return out, nil
}

// ProductsByUPC returns the known products keyed by upc
func (s *Store) ProductsByUPC(_ context.Context, upcs []string) (map[string]any, error) {
	s.record("products", upcs)
	out := make(map[string]any, len(upcs))
	for _, upc := range upcs {
		if p, ok := s.products[upc]; ok {
			out[upc] = p
		}
	}
	return out, nil
}

// ReviewsByAuthor returns the reviews of each author
func (s *Store) ReviewsByAuthor(_ context.Context, authorIDs []string) ([]any, error) {
	s.record("reviews", authorIDs)
	out := make([]any, len(authorIDs))
	for i, id := range authorIDs {
		var reviews []*Review
		for _, r := range s.reviews {
			if r.AuthorID == id {
				reviews = append(reviews, r)
			}
		}
		out[i] = reviews
	}
	return out, nil
}

// Review returns a review by id
func (s *Store) Review(id string) (*Review, bool) {
	for _, r := range s.reviews {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// TopProducts returns up to first products ordered by price, highest first
func (s *Store) TopProducts(first int) []*Product {
	products := make([]*Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Price != products[j].Price {
			return products[i].Price > products[j].Price
		}
		return strings.Compare(products[i].UPC, products[j].UPC) < 0
	})
	if first >= 0 && first < len(products) {
		products = products[:first]
	}
	return products
}
