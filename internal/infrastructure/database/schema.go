package database

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// CategoriesColumns holds the columns for the "categories" table.
	CategoriesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "user_id", Type: field.TypeString, Size: 128},
		{Name: "name", Type: field.TypeString, Size: 100},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// CategoriesTable holds the schema information for the "categories" table.
	// A user cannot own two categories with the same name.
	CategoriesTable = &schema.Table{
		Name:       "categories",
		Columns:    CategoriesColumns,
		PrimaryKey: []*schema.Column{CategoriesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "category_user_id_name",
				Unique:  true,
				Columns: []*schema.Column{CategoriesColumns[1], CategoriesColumns[2]},
			},
		},
	}

	// FlashcardsColumns holds the columns for the "flashcards" table.
	FlashcardsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "user_id", Type: field.TypeString, Size: 128},
		{Name: "category_id", Type: field.TypeString, Size: 36},
		{Name: "front", Type: field.TypeString, Size: 1000},
		{Name: "back", Type: field.TypeString, Size: 1000},
		{Name: "is_known", Type: field.TypeBool, Default: false},
		{Name: "is_reviewed", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// FlashcardsTable holds the schema information for the "flashcards" table.
	// Deleting a category that still has flashcards is refused; callers
	// delete the flashcards first.
	FlashcardsTable = &schema.Table{
		Name:       "flashcards",
		Columns:    FlashcardsColumns,
		PrimaryKey: []*schema.Column{FlashcardsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "flashcards_categories_flashcards",
				Columns:    []*schema.Column{FlashcardsColumns[2]},
				RefColumns: []*schema.Column{CategoriesColumns[0]},
				OnDelete:   schema.NoAction,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "flashcard_user_id_category_id",
				Columns: []*schema.Column{FlashcardsColumns[1], FlashcardsColumns[2]},
			},
		},
	}

	// Tables holds all the tables in the schema, parents first.
	Tables = []*schema.Table{
		CategoriesTable,
		FlashcardsTable,
	}
)

func init() {
	FlashcardsTable.ForeignKeys[0].RefTable = CategoriesTable
}
