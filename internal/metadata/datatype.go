package metadata

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is a column type in the protocol type vocabulary.
type Kind int

const (
	KindUnknown Kind = iota
	KindSmallInt
	KindInteger
	KindBigInt
	KindReal
	KindDouble
	KindBinary
	KindVarBinary
	KindChar
	KindVarChar
	KindBlob
	KindClob
	KindTimestamp
	KindPoint
	KindRegion
)

var kindNames = [...]string{
	KindUnknown:   "UNKNOWN",
	KindSmallInt:  "SMALLINT",
	KindInteger:   "INTEGER",
	KindBigInt:    "BIGINT",
	KindReal:      "REAL",
	KindDouble:    "DOUBLE",
	KindBinary:    "BINARY",
	KindVarBinary: "VARBINARY",
	KindChar:      "CHAR",
	KindVarChar:   "VARCHAR",
	KindBlob:      "BLOB",
	KindClob:      "CLOB",
	KindTimestamp: "TIMESTAMP",
	KindPoint:     "POINT",
	KindRegion:    "REGION",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Sized reports whether a length is meaningful for this kind.
func (k Kind) Sized() bool {
	switch k {
	case KindBinary, KindVarBinary, KindChar, KindVarChar:
		return true
	default:
		return false
	}
}

// DataType is the semantic type of a column: a kind plus an optional length.
// A Length <= 0 means the length is unspecified.
type DataType struct {
	Kind   Kind
	Length int
}

// NewDataType builds a DataType, dropping the length for kinds that do not take one.
func NewDataType(kind Kind, length int) DataType {
	if !kind.Sized() || length < 0 {
		length = 0
	}
	return DataType{Kind: kind, Length: length}
}

// String renders the type the way it appears in TAP_SCHEMA, e.g. "VARCHAR(32)".
func (d DataType) String() string {
	if d.Length > 0 {
		return fmt.Sprintf("%s(%d)", d.Kind, d.Length)
	}
	return d.Kind.String()
}

// ParseDataType parses a type written in the protocol vocabulary ("INTEGER", "VARCHAR(32)").
func ParseDataType(s string) (DataType, error) {
	base, length, err := splitTypeName(strings.TrimSpace(s))
	if err != nil {
		return DataType{}, fmt.Errorf("%w: datatype %q: %v", ErrConfiguration, s, err)
	}
	upper := strings.ToUpper(base)
	for k, name := range kindNames {
		if name == upper {
			return NewDataType(Kind(k), length), nil
		}
	}
	return DataType{}, fmt.Errorf("%w: unknown datatype %q", ErrConfiguration, s)
}

// dbTypeKinds maps engine type names (lower case, without modifiers) onto the vocabulary.
var dbTypeKinds = map[string]Kind{
	"smallint":                    KindSmallInt,
	"int2":                        KindSmallInt,
	"tinyint":                     KindSmallInt,
	"bool":                        KindSmallInt,
	"boolean":                     KindSmallInt,
	"integer":                     KindInteger,
	"int":                         KindInteger,
	"int4":                        KindInteger,
	"mediumint":                   KindInteger,
	"serial":                      KindInteger,
	"bigint":                      KindBigInt,
	"int8":                        KindBigInt,
	"bigserial":                   KindBigInt,
	"real":                        KindReal,
	"float":                       KindReal,
	"float4":                      KindReal,
	"double":                      KindDouble,
	"double precision":            KindDouble,
	"float8":                      KindDouble,
	"numeric":                     KindDouble,
	"decimal":                     KindDouble,
	"binary":                      KindBinary,
	"varbinary":                   KindVarBinary,
	"bytea":                       KindVarBinary,
	"char":                        KindChar,
	"character":                   KindChar,
	"bpchar":                      KindChar,
	"nchar":                       KindChar,
	"varchar":                     KindVarChar,
	"character varying":           KindVarChar,
	"nvarchar":                    KindVarChar,
	"text":                        KindVarChar,
	"tinytext":                    KindVarChar,
	"mediumtext":                  KindVarChar,
	"uuid":                        KindVarChar,
	"json":                        KindVarChar,
	"jsonb":                       KindVarChar,
	"enum":                        KindVarChar,
	"set":                         KindVarChar,
	"longtext":                    KindClob,
	"clob":                        KindClob,
	"blob":                        KindBlob,
	"tinyblob":                    KindBlob,
	"mediumblob":                  KindBlob,
	"longblob":                    KindBlob,
	"timestamp":                   KindTimestamp,
	"timestamptz":                 KindTimestamp,
	"timestamp without time zone": KindTimestamp,
	"timestamp with time zone":    KindTimestamp,
	"datetime":                    KindTimestamp,
	"date":                        KindTimestamp,
	"time":                        KindTimestamp,
	"point":                       KindPoint,
	"polygon":                     KindRegion,
	"circle":                      KindRegion,
	"box":                         KindRegion,
}

// ResolveDBType maps a type name reported by a database engine onto the
// protocol vocabulary. A length <= 0 lets the length be read from a
// "(n)" modifier in the name. Unrecognised names resolve to KindUnknown.
func ResolveDBType(name string, length int) DataType {
	base, parsed, err := splitTypeName(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return DataType{}
	}
	if length <= 0 {
		length = parsed
	}

	kind, ok := dbTypeKinds[base]
	if !ok {
		// "int unsigned", "varchar binary": retry with the leading word
		if fields := strings.Fields(base); len(fields) > 1 {
			kind = dbTypeKinds[fields[0]]
		}
	}
	return NewDataType(kind, length)
}

// splitTypeName splits "varchar(32) unsigned" into "varchar" and 32.
// Only the first modifier argument is kept ("decimal(10,2)" yields 10).
func splitTypeName(s string) (string, int, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, 0, nil
	}
	end := strings.IndexByte(s[open:], ')')
	if end < 0 {
		return "", 0, fmt.Errorf("unbalanced parenthesis")
	}
	arg := s[open+1 : open+end]
	if i := strings.IndexByte(arg, ','); i >= 0 {
		arg = arg[:i]
	}
	base := strings.TrimSpace(s[:open])
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return base, 0, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		// enum('a','b') and friends carry no length
		return base, 0, nil
	}
	return base, n, nil
}
