package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataType(t *testing.T) {
	tests := []struct {
		input   string
		want    DataType
		wantStr string
		wantErr bool
	}{
		{input: "INTEGER", want: DataType{Kind: KindInteger}, wantStr: "INTEGER"},
		{input: "varchar(32)", want: DataType{Kind: KindVarChar, Length: 32}, wantStr: "VARCHAR(32)"},
		{input: " CHAR ( 8 ) ", want: DataType{Kind: KindChar, Length: 8}, wantStr: "CHAR(8)"},
		{input: "DOUBLE(10)", want: DataType{Kind: KindDouble}, wantStr: "DOUBLE"},
		{input: "POINT", want: DataType{Kind: KindPoint}, wantStr: "POINT"},
		{input: "NUMBER", wantErr: true},
		{input: "VARCHAR(32", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDataType(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantStr, got.String())
		})
	}
}

func TestResolveDBType(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   string
	}{
		{"integer", 0, "INTEGER"},
		{"INT4", 0, "INTEGER"},
		{"int(11) unsigned", 0, "INTEGER"},
		{"int unsigned", 0, "INTEGER"},
		{"bigint", 0, "BIGINT"},
		{"character varying", 64, "VARCHAR(64)"},
		{"VARCHAR(32)", 0, "VARCHAR(32)"},
		{"varchar(32)", 16, "VARCHAR(16)"},
		{"bpchar", 3, "CHAR(3)"},
		{"text", 0, "VARCHAR"},
		{"decimal(10,2)", 0, "DOUBLE"},
		{"double precision", 0, "DOUBLE"},
		{"timestamp with time zone", 0, "TIMESTAMP"},
		{"enum('a','b')", 0, "VARCHAR"},
		{"bytea", 0, "VARBINARY"},
		{"longblob", 0, "BLOB"},
		{"boolean", 0, "SMALLINT"},
		{"", 0, "UNKNOWN"},
		{"_int4", 0, "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveDBType(tt.name, tt.length).String())
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "UNKNOWN", Kind(-1).String())
	assert.Equal(t, "UNKNOWN", Kind(99).String())
	assert.True(t, KindVarBinary.Sized())
	assert.False(t, KindInteger.Sized())
}
