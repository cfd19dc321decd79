package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"batterybots/internal/genotype"
	"batterybots/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Versioned is the header stamped on every record this package writes.
func Versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeGenome(g model.Genome) ([]byte, error) {
	if err := genotype.Validate(g); err != nil {
		return nil, err
	}
	return json.Marshal(g)
}

// DecodeGenome rejects records from another codec version and genomes
// that break the 16-rule shape.
func DecodeGenome(data []byte) (model.Genome, error) {
	return decodeRecord(data, "genome", func(g model.Genome) error {
		if err := checkVersion(g.VersionedRecord); err != nil {
			return err
		}
		return genotype.Validate(g)
	})
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	return decodeRecord(data, "run", func(r model.RunRecord) error {
		return checkVersion(r.VersionedRecord)
	})
}

func EncodeScapeSummary(s model.ScapeSummary) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeScapeSummary(data []byte) (model.ScapeSummary, error) {
	return decodeRecord(data, "scape summary", func(s model.ScapeSummary) error {
		return checkVersion(s.VersionedRecord)
	})
}

func EncodeTopGenomes(records []model.TopGenomeRecord) ([]byte, error) {
	return json.Marshal(records)
}

func DecodeTopGenomes(data []byte) ([]model.TopGenomeRecord, error) {
	return decodeRecord(data, "top genomes", func(records []model.TopGenomeRecord) error {
		for _, record := range records {
			if err := checkVersion(record.VersionedRecord); err != nil {
				return fmt.Errorf("rank %d: %w", record.Rank, err)
			}
		}
		return nil
	})
}

// Fitness history and diagnostics are bare series keyed by run id, so
// they carry no version header.
func EncodeFitnessHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]float64, error) {
	return decodeRecord[[]float64](data, "fitness history", nil)
}

func EncodeGenerationDiagnostics(diagnostics []model.GenerationDiagnostics) ([]byte, error) {
	return json.Marshal(diagnostics)
}

func DecodeGenerationDiagnostics(data []byte) ([]model.GenerationDiagnostics, error) {
	return decodeRecord[[]model.GenerationDiagnostics](data, "generation diagnostics", nil)
}

func decodeRecord[T any](data []byte, kind string, check func(T) error) (T, error) {
	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s: %w", kind, err)
	}
	if check != nil {
		if err := check(record); err != nil {
			var zero T
			return zero, fmt.Errorf("decode %s: %w", kind, err)
		}
	}
	return record, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
