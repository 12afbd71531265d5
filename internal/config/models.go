package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/chatlist/fanout"
	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// ModelsFile is the document accepted by `chatlist models import`.
type ModelsFile struct {
	Models []fanout.ModelConfig `json:"models" yaml:"models" jsonschema:"minItems=1" jsonschema_description:"Model endpoints to create or update, matched by name"`
}

// ReadModelsFile decodes a YAML or JSON models file and validates every
// entry.
func ReadModelsFile(path string) (ModelsFile, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return ModelsFile{}, errors.Wrap(err, "could not read models file")
	}

	var file ModelsFile

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(contents, &file)
	default:
		err = yaml.Unmarshal(contents, &file)
	}

	if err != nil {
		return ModelsFile{}, errors.Wrapf(err, "could not decode %s", path)
	}

	for idx, model := range file.Models {
		if err := model.Validate(); err != nil {
			return ModelsFile{}, errors.Wrapf(err, "invalid model #%d", idx+1)
		}
	}

	if dups := lo.FindDuplicatesBy(file.Models, func(m fanout.ModelConfig) string { return m.Name }); len(dups) > 0 {
		return ModelsFile{}, errors.Newf("duplicate model name '%s'", dups[0].Name)
	}

	return file, nil
}

// ModelsSchema describes ModelsFile as a JSON schema, for editor completion.
func ModelsSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	return reflector.Reflect(new(ModelsFile))
}
