// Package testmodels provides the book catalog models, descriptors and
// seed data shared by the integration tests and the demo server.
package testmodels

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/bitechdev/GridSpec/pkg/common"
)

// Publisher is the second relationship hop (book -> author -> publisher).
type Publisher struct {
	bun.BaseModel `bun:"table:publishers"`

	ID      int64  `bun:"id,pk,autoincrement" gorm:"column:id;primaryKey" json:"id"`
	Name    string `bun:"name" gorm:"column:name" json:"name"`
	Country string `bun:"country" gorm:"column:country" json:"country"`
}

func (Publisher) TableName() string { return "publishers" }

type Author struct {
	bun.BaseModel `bun:"table:authors"`

	ID          int64  `bun:"id,pk,autoincrement" gorm:"column:id;primaryKey" json:"id"`
	Name        string `bun:"name" gorm:"column:name" json:"name"`
	Country     string `bun:"country" gorm:"column:country" json:"country"`
	PublisherID int64  `bun:"publisher_id" gorm:"column:publisher_id" json:"publisher_id"`

	Publisher *Publisher `bun:"rel:belongs-to,join:publisher_id=id" gorm:"foreignKey:PublisherID" json:"publisher,omitempty"`
}

func (Author) TableName() string { return "authors" }

// Book is the grid's row model. Tags holds a JSON array and Meta a JSON
// object, both stored as TEXT so the json_each / -> operators can be
// exercised against sqlite.
type Book struct {
	bun.BaseModel `bun:"table:books"`

	ID          int64     `bun:"id,pk,autoincrement" gorm:"column:id;primaryKey" json:"id"`
	Title       string    `bun:"title" gorm:"column:title" json:"title"`
	Genre       string    `bun:"genre" gorm:"column:genre" json:"genre"`
	Format      string    `bun:"format" gorm:"column:format" json:"format"`
	Year        int       `bun:"year" gorm:"column:year" json:"year"`
	Price       float64   `bun:"price" gorm:"column:price" json:"price"`
	InStock     bool      `bun:"in_stock" gorm:"column:in_stock" json:"in_stock"`
	Tags        string    `bun:"tags" gorm:"column:tags" json:"tags"`
	Meta        string    `bun:"meta" gorm:"column:meta" json:"meta"`
	PublishedAt time.Time `bun:"published_at" gorm:"column:published_at" json:"published_at"`
	AuthorID    int64     `bun:"author_id" gorm:"column:author_id" json:"author_id"`

	Author *Author `bun:"rel:belongs-to,join:author_id=id" gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Book) TableName() string { return "books" }

// BooksResource describes the books table for the grid engine.
func BooksResource() *common.ResourceDescriptor {
	return &common.ResourceDescriptor{
		Table:      "books",
		PrimaryKey: "id",
		Model:      &Book{},
		Attributes: map[string]common.AttributeDescriptor{
			"title":                 {Name: "title", Kind: common.AttrString},
			"genre":                 {Name: "genre", Kind: common.AttrString, Enum: []string{"scifi", "fantasy", "mystery", "history"}},
			"format":                {Name: "format", Kind: common.AttrString, Enum: []string{"hardcover", "paperback", "ebook"}},
			"year":                  {Name: "year", Kind: common.AttrInteger},
			"price":                 {Name: "price", Kind: common.AttrFloat},
			"in_stock":              {Name: "in_stock", Kind: common.AttrBoolean},
			"tags":                  {Name: "tags", Kind: common.AttrArray},
			"meta":                  {Name: "meta", Kind: common.AttrMap},
			"published_at":          {Name: "published_at", Kind: common.AttrDate},
			"author.name":           {Name: "name", Kind: common.AttrString},
			"author.country":        {Name: "country", Kind: common.AttrString},
			"author.publisher.name": {Name: "name", Kind: common.AttrString},
			"meta[:awards]":         {Name: "awards", Kind: common.AttrString},
		},
		Relations: map[string]common.RelationSpec{
			"author":           {Name: "author", Table: "authors", JoinColumn: "id", ParentColumn: "author_id"},
			"author.publisher": {Name: "publisher", Table: "publishers", JoinColumn: "id", ParentColumn: "publisher_id"},
		},
		SearchColumns:      []string{"title", "genre"},
		SupportsPagination: true,
		SupportsKeyset:     true,
	}
}

// BookColumns is the grid's column configuration over BooksResource.
func BookColumns() []common.ColumnSpec {
	return []common.ColumnSpec{
		{Field: "title", Label: "Title", Filterable: true, FilterType: common.FilterText, Sortable: true},
		{Field: "genre", Label: "Genre", Filterable: true, FilterType: common.FilterSelect, Sortable: true},
		{Field: "format", Label: "Format", Filterable: true, FilterType: common.FilterRadioGroup, Sortable: false},
		{Field: "year", Label: "Year", Filterable: true, FilterType: common.FilterNumberRange, Sortable: true},
		{Field: "price", Label: "Price", Filterable: true, FilterType: common.FilterNumberRange, Sortable: true},
		{Field: "in_stock", Label: "In Stock", Filterable: true, FilterType: common.FilterBoolean, Sortable: false},
		{Field: "tags", Label: "Tags", Filterable: true, FilterType: common.FilterMultiSelect, Sortable: false},
		{Field: "published_at", Label: "Published", Filterable: true, FilterType: common.FilterDateRange, Sortable: true},
		{Field: "author.name", Label: "Author", Filterable: true, FilterType: common.FilterText, Sortable: false},
		{Field: "author.publisher.name", Label: "Publisher", Filterable: true, FilterType: common.FilterText, Sortable: false},
		{Field: "meta[:awards]", Label: "Awards", Filterable: true, FilterType: common.FilterText, Sortable: false},
	}
}

// SeedPublishers, SeedAuthors and SeedBooks provide a small dataset
// with enough variety to exercise every filter type.
func SeedPublishers() []*Publisher {
	return []*Publisher{
		{ID: 1, Name: "Orbit House", Country: "UK"},
		{ID: 2, Name: "Granite Press", Country: "US"},
	}
}

func SeedAuthors() []*Author {
	return []*Author{
		{ID: 1, Name: "Ada Wells", Country: "UK", PublisherID: 1},
		{ID: 2, Name: "Marcus Chen", Country: "US", PublisherID: 2},
		{ID: 3, Name: "Ines Duarte", Country: "PT", PublisherID: 2},
	}
}

func SeedBooks() []*Book {
	date := func(y, m, d int) time.Time {
		return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	}
	return []*Book{
		{ID: 1, Title: "Dune Reborn", Genre: "scifi", Format: "hardcover", Year: 2019, Price: 29.90, InStock: true,
			Tags: `["space","classic"]`, Meta: `{"awards":"hugo","links":{"homepage":"https://example.com/dune"}}`,
			PublishedAt: date(2019, 3, 14), AuthorID: 1},
		{ID: 2, Title: "Glass Harbor", Genre: "mystery", Format: "paperback", Year: 2021, Price: 14.50, InStock: true,
			Tags: `["noir"]`, Meta: `{"awards":"","links":{}}`,
			PublishedAt: date(2021, 7, 2), AuthorID: 2},
		{ID: 3, Title: "The Last Archive", Genre: "fantasy", Format: "ebook", Year: 2020, Price: 9.99, InStock: false,
			Tags: `["epic","classic"]`, Meta: `{"awards":"nebula"}`,
			PublishedAt: date(2020, 11, 20), AuthorID: 1},
		{ID: 4, Title: "Iron Meridian", Genre: "scifi", Format: "paperback", Year: 2022, Price: 18.00, InStock: true,
			Tags: `["space","military"]`, Meta: `{"awards":""}`,
			PublishedAt: date(2022, 1, 9), AuthorID: 3},
		{ID: 5, Title: "Quiet Rivers", Genre: "history", Format: "hardcover", Year: 2018, Price: 24.00, InStock: false,
			Tags: `[]`, Meta: `{}`,
			PublishedAt: date(2018, 5, 30), AuthorID: 2},
		{ID: 6, Title: "Duneside Letters", Genre: "history", Format: "ebook", Year: 2023, Price: 11.25, InStock: true,
			Tags: `["letters","classic"]`, Meta: `{"awards":"pulitzer"}`,
			PublishedAt: date(2023, 9, 1), AuthorID: 3},
	}
}
