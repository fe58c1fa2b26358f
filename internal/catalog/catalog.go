// Package catalog serves the read-only product and delivery-method
// catalogs backing line-item creation and delivery selection.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"

	"github.com/Definkle/skinet-cart/internal/domain"
)

var ErrNotFound = errors.New("not found")

type Catalog interface {
	GetProducts(ctx context.Context, brand, productType string) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetDeliveryMethods(ctx context.Context) ([]*domain.DeliveryMethod, error)
	GetDeliveryMethod(ctx context.Context, id int64) (*domain.DeliveryMethod, error)
}

type Repository struct {
	db  *sql.DB
	sfg singleflight.Group // collapses concurrent lookups for the same product
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) GetProducts(ctx context.Context, brand, productType string) ([]*domain.Product, error) {
	query := `
		SELECT id, name, description, price, picture_url, brand, type
		FROM products
		WHERE (?1 = '' OR brand = ?1)
		  AND (?2 = '' OR type = ?2)
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, brand, productType)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p := &domain.Product{}
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.PictureURL, &p.Brand, &p.Type)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	v, err, _ := r.sfg.Do(fmt.Sprintf("product:%d", id), func() (interface{}, error) {
		query := `
			SELECT id, name, description, price, picture_url, brand, type
			FROM products
			WHERE id = ?
		`

		p := &domain.Product{}
		err := r.db.QueryRowContext(ctx, query, id).Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.PictureURL, &p.Brand, &p.Type,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query product %d: %w", id, err)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Product), nil
}

func (r *Repository) GetDeliveryMethods(ctx context.Context) ([]*domain.DeliveryMethod, error) {
	query := `
		SELECT id, short_name, description, delivery_time, price
		FROM delivery_methods
		ORDER BY price DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery methods: %w", err)
	}
	defer rows.Close()

	var methods []*domain.DeliveryMethod
	for rows.Next() {
		m := &domain.DeliveryMethod{}
		err := rows.Scan(&m.ID, &m.ShortName, &m.Description, &m.DeliveryTime, &m.Price)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery method: %w", err)
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate delivery methods: %w", err)
	}

	return methods, nil
}

func (r *Repository) GetDeliveryMethod(ctx context.Context, id int64) (*domain.DeliveryMethod, error) {
	query := `
		SELECT id, short_name, description, delivery_time, price
		FROM delivery_methods
		WHERE id = ?
	`

	m := &domain.DeliveryMethod{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.ShortName, &m.Description, &m.DeliveryTime, &m.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery method %d: %w", id, err)
	}

	return m, nil
}
