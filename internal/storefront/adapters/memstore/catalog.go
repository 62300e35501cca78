package memstore

import (
	"context"
	"slices"
	"strings"

	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type productRepo struct{ s *Store }

func (r productRepo) withCategory(st *state, p domain.Product) *domain.Product {
	p.Category = st.categories[p.CategoryID]
	return &p
}

func (r productRepo) Get(_ context.Context, id uint) (*domain.Product, error) {
	var out *domain.Product
	err := r.s.with(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("product", id)
		}
		out = r.withCategory(st, p)
		return nil
	})
	return out, err
}

func (r productRepo) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	var out *domain.Product
	err := r.s.with(func(st *state) error {
		for _, p := range st.products {
			if p.Slug == slug {
				out = r.withCategory(st, p)
				return nil
			}
		}
		return domain.NotFound("product", slug)
	})
	return out, err
}

func (r productRepo) List(_ context.Context, f domain.ProductFilter, offset, limit int) ([]domain.Product, int64, error) {
	var (
		page  []domain.Product
		total int64
	)
	err := r.s.with(func(st *state) error {
		search := strings.ToLower(strings.TrimSpace(f.Search))
		var all []domain.Product
		for _, p := range st.products {
			cat := st.categories[p.CategoryID]
			if f.CategorySlug != "" && cat.Slug != f.CategorySlug {
				continue
			}
			if f.FeaturedOnly && !p.Featured {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
				!strings.Contains(strings.ToLower(p.Description), search) {
				continue
			}
			p.Category = cat
			all = append(all, p)
		}
		newestFirst(all, func(p domain.Product) (int64, uint) { return p.CreatedAt.UnixNano(), p.ID })
		total = int64(len(all))
		if offset >= len(all) {
			return nil
		}
		page = all[offset:min(offset+limit, len(all))]
		return nil
	})
	return page, total, err
}

func (r productRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	found := false
	err := r.s.with(func(st *state) error {
		for _, p := range st.products {
			if p.Slug == slug {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r productRepo) Create(_ context.Context, p *domain.Product) error {
	return r.s.with(func(st *state) error {
		for _, other := range st.products {
			if other.Slug == p.Slug {
				return domain.ErrConflict
			}
		}
		p.ID = st.nextID()
		st.products[p.ID] = *p
		return nil
	})
}

func (r productRepo) Update(_ context.Context, p *domain.Product) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.products[p.ID]; !ok {
			return domain.NotFound("product", p.ID)
		}
		for id, other := range st.products {
			if id != p.ID && other.Slug == p.Slug {
				return domain.ErrConflict
			}
		}
		updated := *p
		updated.Category = domain.Category{}
		updated.Stock = max(updated.Stock, 0)
		st.products[p.ID] = updated
		return nil
	})
}

func (r productRepo) Delete(_ context.Context, id uint) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return domain.NotFound("product", id)
		}
		delete(st.products, id)
		return nil
	})
}

func (r productRepo) SetStock(_ context.Context, id uint, stock int) error {
	return r.s.with(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("product", id)
		}
		p.Stock = max(stock, 0)
		st.products[id] = p
		return nil
	})
}

func (r productRepo) DecrementStock(_ context.Context, id uint, qty int) error {
	return r.s.with(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("product", id)
		}
		if p.Stock < qty {
			return &domain.OutOfStockError{ProductID: id, Available: p.Stock, Requested: qty}
		}
		p.Stock -= qty
		st.products[id] = p
		return nil
	})
}

func (r productRepo) IncrementStock(_ context.Context, id uint, qty int) error {
	return r.s.with(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("product", id)
		}
		p.Stock += qty
		st.products[id] = p
		return nil
	})
}

func (r productRepo) Stats(_ context.Context, lowStock int) (domain.InventoryStats, error) {
	var stats domain.InventoryStats
	err := r.s.with(func(st *state) error {
		for _, p := range st.products {
			stats.Total++
			switch {
			case p.Stock == 0:
				stats.OutOfStock++
			case p.Stock <= lowStock:
				stats.LowStock++
				stats.InStock++
			default:
				stats.InStock++
			}
		}
		return nil
	})
	return stats, err
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) List(_ context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := r.s.with(func(st *state) error {
		for _, c := range st.categories {
			out = append(out, c)
		}
		slices.SortFunc(out, func(a, b domain.Category) int { return strings.Compare(a.Name, b.Name) })
		return nil
	})
	return out, err
}

func (r categoryRepo) GetBySlug(_ context.Context, slug string) (*domain.Category, error) {
	var out *domain.Category
	err := r.s.with(func(st *state) error {
		for _, c := range st.categories {
			if c.Slug == slug {
				out = &c
				return nil
			}
		}
		return domain.NotFound("category", slug)
	})
	return out, err
}

func (r categoryRepo) Create(_ context.Context, c *domain.Category) error {
	return r.s.with(func(st *state) error {
		for _, other := range st.categories {
			if other.Slug == c.Slug {
				return domain.ErrConflict
			}
		}
		c.ID = st.nextID()
		st.categories[c.ID] = *c
		return nil
	})
}

type reviewRepo struct{ s *Store }

func (r reviewRepo) Upsert(_ context.Context, rv *domain.Review) (bool, error) {
	created := false
	err := r.s.with(func(st *state) error {
		rv.Username = st.users[rv.UserID].Username
		for i, existing := range st.reviews {
			if existing.UserID == rv.UserID && existing.ProductID == rv.ProductID {
				rv.ID = existing.ID
				rv.CreatedAt = existing.CreatedAt
				st.reviews[i] = *rv
				return nil
			}
		}
		rv.ID = st.nextID()
		st.reviews = append(st.reviews, *rv)
		created = true
		return nil
	})
	return created, err
}

func (r reviewRepo) DeleteByProduct(_ context.Context, productID uint) error {
	return r.s.with(func(st *state) error {
		st.reviews = slices.DeleteFunc(st.reviews, func(rv domain.Review) bool { return rv.ProductID == productID })
		return nil
	})
}

func (r reviewRepo) ListByProduct(_ context.Context, productID uint) ([]domain.Review, error) {
	var out []domain.Review
	err := r.s.with(func(st *state) error {
		for _, rv := range st.reviews {
			if rv.ProductID == productID {
				rv.Username = st.users[rv.UserID].Username
				out = append(out, rv)
			}
		}
		return nil
	})
	newestFirst(out, func(rv domain.Review) (int64, uint) { return rv.CreatedAt.UnixNano(), rv.ID })
	return out, err
}
