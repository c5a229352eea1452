// Package docstore provides document lookup backend options.
package docstore

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-rag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// redactedPassword is the placeholder used when serializing passwords.
const redactedPassword = "[REDACTED]"

// Supported document store types.
const (
	TypeNone     = "none"
	TypeMemory   = "memory"
	TypeMySQL    = "mysql"
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
	TypeMongoDB  = "mongodb"
	TypeMilvus   = "milvus"
)

// Options selects and configures the full-content document lookup.
type Options struct {
	// Type is the lookup backend. "none" disables full-content lookup and the
	// context builder uses the retrieved text.
	Type string `json:"type" mapstructure:"type"`

	// Timeout bounds connection setup and every lookup.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// SeedFile is a JSON array of {"id","content"} loaded by the memory store.
	SeedFile string `json:"seed-file" mapstructure:"seed-file"`

	SQL    *SQLOptions    `json:"sql" mapstructure:"sql"`
	Mongo  *MongoOptions  `json:"mongodb" mapstructure:"mongodb"`
	Milvus *MilvusOptions `json:"milvus" mapstructure:"milvus"`
}

// SQLOptions configures the gorm-backed lookup (mysql, postgres, sqlite).
type SQLOptions struct {
	// DSN is the driver-specific data source name. For sqlite it is a file
	// path or ":memory:".
	DSN             string        `json:"-" mapstructure:"dsn"`
	MaxOpenConns    int           `json:"max-open-conns" mapstructure:"max-open-conns"`
	MaxIdleConns    int           `json:"max-idle-conns" mapstructure:"max-idle-conns"`
	ConnMaxLifetime time.Duration `json:"conn-max-lifetime" mapstructure:"conn-max-lifetime"`
	AutoMigrate     bool          `json:"auto-migrate" mapstructure:"auto-migrate"`
	SlowThreshold   time.Duration `json:"slow-threshold" mapstructure:"slow-threshold"`
}

// MongoOptions configures the MongoDB lookup.
type MongoOptions struct {
	URI        string `json:"-" mapstructure:"uri"`
	Database   string `json:"database" mapstructure:"database"`
	Collection string `json:"collection" mapstructure:"collection"`
}

// MilvusOptions configures the Milvus lookup.
type MilvusOptions struct {
	Address      string `json:"address" mapstructure:"address"`
	Database     string `json:"database" mapstructure:"database"`
	Username     string `json:"username" mapstructure:"username"`
	Password     string `json:"-" mapstructure:"password"`
	Collection   string `json:"collection" mapstructure:"collection"`
	IDField      string `json:"id-field" mapstructure:"id-field"`
	ContentField string `json:"content-field" mapstructure:"content-field"`
}

// NewOptions creates default document store options.
func NewOptions() *Options {
	return &Options{
		Type:    TypeNone,
		Timeout: 5 * time.Second,
		SQL: &SQLOptions{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
			SlowThreshold:   200 * time.Millisecond,
		},
		Mongo: &MongoOptions{
			URI:        "mongodb://127.0.0.1:27017",
			Database:   "rag",
			Collection: "documents",
		},
		Milvus: &MilvusOptions{
			Address:      "localhost:19530",
			Database:     "default",
			Collection:   "documents",
			IDField:      "id",
			ContentField: "content",
		},
	}
}

// MarshalJSON implements json.Marshaler with credential redaction.
func (o *Options) MarshalJSON() ([]byte, error) {
	type plain Options
	out := struct {
		*plain
		SQLDSN         string `json:"sql-dsn,omitempty"`
		MongoURI       string `json:"mongodb-uri,omitempty"`
		MilvusPassword string `json:"milvus-password,omitempty"`
	}{plain: (*plain)(o)}
	if o.SQL != nil && o.SQL.DSN != "" {
		out.SQLDSN = redactedPassword
	}
	if o.Mongo != nil && o.Mongo.URI != "" {
		out.MongoURI = redactedPassword
	}
	if o.Milvus != nil && o.Milvus.Password != "" {
		out.MilvusPassword = redactedPassword
	}
	return json.Marshal(out)
}

// AddFlags adds flags for document store options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "docstore."
	fs.StringVar(&o.Type, p+"type", o.Type, "Full-content document lookup backend (none, memory, mysql, postgres, sqlite, mongodb, milvus).")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Document store connect and lookup timeout.")
	fs.StringVar(&o.SeedFile, p+"seed-file", o.SeedFile, "JSON seed file for the memory document store.")

	fs.StringVar(&o.SQL.DSN, p+"sql.dsn", o.SQL.DSN, "SQL data source name (prefer the RAG_DOCSTORE_DSN environment variable).")
	fs.IntVar(&o.SQL.MaxOpenConns, p+"sql.max-open-conns", o.SQL.MaxOpenConns, "Maximum open SQL connections.")
	fs.IntVar(&o.SQL.MaxIdleConns, p+"sql.max-idle-conns", o.SQL.MaxIdleConns, "Maximum idle SQL connections.")
	fs.DurationVar(&o.SQL.ConnMaxLifetime, p+"sql.conn-max-lifetime", o.SQL.ConnMaxLifetime, "Maximum SQL connection lifetime.")
	fs.BoolVar(&o.SQL.AutoMigrate, p+"sql.auto-migrate", o.SQL.AutoMigrate, "Create the documents table on start.")
	fs.DurationVar(&o.SQL.SlowThreshold, p+"sql.slow-threshold", o.SQL.SlowThreshold, "Slow SQL log threshold.")

	fs.StringVar(&o.Mongo.URI, p+"mongodb.uri", o.Mongo.URI, "MongoDB connection URI.")
	fs.StringVar(&o.Mongo.Database, p+"mongodb.database", o.Mongo.Database, "MongoDB database.")
	fs.StringVar(&o.Mongo.Collection, p+"mongodb.collection", o.Mongo.Collection, "MongoDB collection holding documents.")

	fs.StringVar(&o.Milvus.Address, p+"milvus.address", o.Milvus.Address, "Milvus server address (host:port).")
	fs.StringVar(&o.Milvus.Database, p+"milvus.database", o.Milvus.Database, "Milvus database name.")
	fs.StringVar(&o.Milvus.Username, p+"milvus.username", o.Milvus.Username, "Milvus username.")
	fs.StringVar(&o.Milvus.Password, p+"milvus.password", o.Milvus.Password, "Milvus password.")
	fs.StringVar(&o.Milvus.Collection, p+"milvus.collection", o.Milvus.Collection, "Milvus collection holding documents.")
	fs.StringVar(&o.Milvus.IDField, p+"milvus.id-field", o.Milvus.IDField, "Milvus primary key field.")
	fs.StringVar(&o.Milvus.ContentField, p+"milvus.content-field", o.Milvus.ContentField, "Milvus field holding the document content.")
}

// Validate validates the document store options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("docstore.timeout must be positive"))
	}

	switch o.Type {
	case TypeNone, "":
	case TypeMemory:
		if o.SeedFile == "" {
			errs = append(errs, fmt.Errorf("docstore.seed-file is required for the memory store"))
		}
	case TypeMySQL, TypePostgres, TypeSQLite:
		if o.SQL == nil || o.SQL.DSN == "" {
			errs = append(errs, fmt.Errorf("docstore.sql.dsn is required for the %s store", o.Type))
		}
	case TypeMongoDB:
		if o.Mongo == nil || o.Mongo.URI == "" || o.Mongo.Database == "" || o.Mongo.Collection == "" {
			errs = append(errs, fmt.Errorf("docstore.mongodb uri, database and collection are required"))
		}
	case TypeMilvus:
		if o.Milvus == nil || o.Milvus.Address == "" || o.Milvus.Collection == "" {
			errs = append(errs, fmt.Errorf("docstore.milvus address and collection are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("docstore.type %q is not supported", o.Type))
	}
	return errs
}

// Complete fills defaults and reads the SQL DSN from RAG_DOCSTORE_DSN.
func (o *Options) Complete() error {
	if o.Type == "" {
		o.Type = TypeNone
	}
	def := NewOptions()
	if o.SQL == nil {
		o.SQL = def.SQL
	}
	if o.Mongo == nil {
		o.Mongo = def.Mongo
	}
	if o.Milvus == nil {
		o.Milvus = def.Milvus
	}
	if o.SQL.DSN == "" {
		o.SQL.DSN = os.Getenv("RAG_DOCSTORE_DSN")
	}
	return nil
}
