package mssqlmcp

import "testing"

func TestColumnDDLSimple(t *testing.T) {
	t.Parallel()
	col := map[string]interface{}{
		"column_name": "id",
		"data_type":   "int",
		"is_nullable": false,
	}
	want := "[id] int NOT NULL"
	if got := columnDDL(col); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestColumnDDLNullable(t *testing.T) {
	t.Parallel()
	col := map[string]interface{}{
		"column_name": "notes",
		"data_type":   "text",
		"is_nullable": true,
	}
	want := "[notes] text NULL"
	if got := columnDDL(col); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestColumnDDLVarchar(t *testing.T) {
	t.Parallel()
	col := map[string]interface{}{
		"column_name": "code",
		"data_type":   "varchar",
		"max_length":  int64(50),
		"is_nullable": false,
	}
	want := "[code] varchar(50) NOT NULL"
	if got := columnDDL(col); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestColumnDDLNVarcharHalvesByteLength(t *testing.T) {
	t.Parallel()
	// sys.columns reports byte length; nvarchar(50) stores as 100 bytes
	col := map[string]interface{}{
		"column_name": "name",
		"data_type":   "nvarchar",
		"max_length":  int64(100),
		"is_nullable": true,
	}
	want := "[name] nvarchar(50) NULL"
	if got := columnDDL(col); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestColumnDDLVarcharMax(t *testing.T) {
	t.Parallel()
	col := map[string]interface{}{
		"column_name": "body",
		"data_type":   "nvarchar",
		"max_length":  int64(-1),
		"is_nullable": true,
	}
	want := "[body] nvarchar(MAX) NULL"
	if got := columnDDL(col); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestColumnDDLDecimal(t *testing.T) {
	t.Parallel()
	col := map[string]interface{}{
		"column_name": "price",
		"data_type":   "decimal",
		"precision":   int64(18),
		"scale":       int64(2),
		"is_nullable": false,
	}
	want := "[price] decimal(18,2) NOT NULL"
	if got := columnDDL(col); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestColumnDDLFloatPrecision(t *testing.T) {
	t.Parallel()
	col := map[string]interface{}{
		"column_name": "ratio",
		"data_type":   "float",
		"precision":   int64(24),
		"is_nullable": true,
	}
	want := "[ratio] float(24) NULL"
	if got := columnDDL(col); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestColumnDDLIdentityDefaults(t *testing.T) {
	t.Parallel()
	// Seed and increment default to 1 when the catalog reports 0
	col := map[string]interface{}{
		"column_name": "id",
		"data_type":   "bigint",
		"is_identity": true,
		"is_nullable": false,
	}
	want := "[id] bigint IDENTITY(1,1) NOT NULL"
	if got := columnDDL(col); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestColumnDDLIdentityCustomSeed(t *testing.T) {
	t.Parallel()
	col := map[string]interface{}{
		"column_name":     "order_no",
		"data_type":       "int",
		"is_identity":     true,
		"seed_value":      int64(1000),
		"increment_value": int64(5),
		"is_nullable":     false,
	}
	want := "[order_no] int IDENTITY(1000,5) NOT NULL"
	if got := columnDDL(col); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestColumnDDLComputed(t *testing.T) {
	t.Parallel()
	col := map[string]interface{}{
		"column_name":         "total",
		"data_type":           "money",
		"computed_definition": "([price]*[quantity])",
	}
	want := "[total] AS ([price]*[quantity])"
	if got := columnDDL(col); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestColumnDDLDefault(t *testing.T) {
	t.Parallel()
	col := map[string]interface{}{
		"column_name":   "created_at",
		"data_type":     "datetime2",
		"is_nullable":   false,
		"default_value": "(getutcdate())",
	}
	want := "[created_at] datetime2 NOT NULL DEFAULT (getutcdate())"
	if got := columnDDL(col); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
