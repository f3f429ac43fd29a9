package orm

import (
	"ariga.io/atlas-provider-gorm/gormschema"

	"github.com/initia-labs/transfervolume/types"
)

// SchemaStatements renders the DDL of every indexer table. atlas.hcl consumes
// it as the desired state when diffing migrations.
func SchemaStatements() (string, error) {
	models := make([]any, 0, len(types.AllTables))
	for _, table := range types.AllTables {
		models = append(models, table.Model)
	}
	return gormschema.New("postgres").Load(models...)
}
