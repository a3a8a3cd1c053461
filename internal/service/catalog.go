package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/go_outdoor/internal/logging"
	"github.com/Skotchmaster/go_outdoor/internal/models"
	"github.com/Skotchmaster/go_outdoor/internal/repo"
	"github.com/Skotchmaster/go_outdoor/internal/search"
)

type CatalogService struct {
	Repo *repo.GormRepo
	// Search is optional; without it queries run against the database.
	Search ProductSearcher
}

type SearchPage struct {
	Total int64
	Page  int
	Size  int
	Items []models.Product
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	if id == 0 {
		return nil, fmt.Errorf("product id must be positive: %w", ErrValidation)
	}
	p, err := s.Repo.ProductByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *CatalogService) SearchProducts(ctx context.Context, query string, page, size int) (*SearchPage, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", ErrValidation)
	}
	offset, limit := search.Paginate(page, size)
	if page < 1 {
		page = 1
	}
	result := &SearchPage{Page: page, Size: limit}

	if s.Search != nil {
		total, ids, err := s.Search.Search(ctx, query, offset, limit)
		if err == nil {
			items, err := s.Repo.ProductsByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			result.Total, result.Items = total, items
			return result, nil
		}
		l.Warn("search_index_unavailable", "error", err)
	}

	total, items, err := s.Repo.SearchProducts(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	result.Total, result.Items = total, items
	return result, nil
}

// IndexAll pushes the whole catalog into the search index.
func (s *CatalogService) IndexAll(ctx context.Context) error {
	if s.Search == nil {
		return nil
	}
	products, err := s.Repo.ListProducts(ctx)
	if err != nil {
		return err
	}
	if err := s.Search.IndexProducts(ctx, products); err != nil {
		return fmt.Errorf("index products: %w", err)
	}
	logging.FromContext(ctx).Info("products_indexed", "count", len(products))
	return nil
}
