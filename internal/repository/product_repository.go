package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-portal-api/internal/models"
)

const productColumns = `id, name, description, price, stock, image_url, tags, active, created_at, updated_at`

// ProductRepository manages shop merchandise.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository constructs the repository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListActive returns products visible in the shop.
func (r *ProductRepository) ListActive(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products WHERE active = TRUE ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// FindByID returns a product.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.GetContext(ctx, &product, `SELECT `+productColumns+` FROM products WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &product, nil
}

// Create inserts a product.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if product.Tags == nil {
		product.Tags = []string{}
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	const query = `INSERT INTO products (` + productColumns + `)
	VALUES (:id, :name, :description, :price, :stock, :image_url, :tags, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// Update overwrites a product.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	if product.Tags == nil {
		product.Tags = []string{}
	}
	product.UpdatedAt = time.Now().UTC()
	const query = `UPDATE products SET name = :name, description = :description, price = :price, stock = :stock,
	image_url = :image_url, tags = :tags, active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, product)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return affectedOrNoRows(res)
}
