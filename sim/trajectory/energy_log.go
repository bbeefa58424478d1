package trajectory

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// EnergyRecord is one report row of a run.
type EnergyRecord struct {
	Sweeps          int64
	Energy          float64 // total energy
	MeanEnergy      float64 // per particle
	AcceptanceRatio float64
	MeanClusterSize float64
}

var energyLogColumns = []string{
	"sweeps", "energy", "mean_energy", "acceptance_ratio", "mean_cluster_size",
}

// EnergyLog appends EnergyRecords to a CSV file.
type EnergyLog struct {
	file   *os.File
	writer *csv.Writer
}

// CreateEnergyLog truncates path and writes the column header.
func CreateEnergyLog(path string) (*EnergyLog, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating energy log: %w", err)
	}
	l := &EnergyLog{file: file, writer: csv.NewWriter(file)}
	if err := l.writer.Write(energyLogColumns); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}
	return l, nil
}

// Append writes one record and flushes it to disk.
func (l *EnergyLog) Append(r EnergyRecord) error {
	row := []string{
		strconv.FormatInt(r.Sweeps, 10),
		strconv.FormatFloat(r.Energy, 'g', -1, 64),
		strconv.FormatFloat(r.MeanEnergy, 'g', -1, 64),
		strconv.FormatFloat(r.AcceptanceRatio, 'g', -1, 64),
		strconv.FormatFloat(r.MeanClusterSize, 'g', -1, 64),
	}
	if err := l.writer.Write(row); err != nil {
		return fmt.Errorf("writing CSV row at sweep %d: %w", r.Sweeps, err)
	}
	l.writer.Flush()
	return l.writer.Error()
}

// Close flushes and closes the log file.
func (l *EnergyLog) Close() error {
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}

// LoadEnergyLog reads every record of an energy log.
func LoadEnergyLog(path string) ([]EnergyRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening energy log: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var records []EnergyRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		if len(row) < len(energyLogColumns) {
			return nil, fmt.Errorf("CSV row has %d columns, expected %d", len(row), len(energyLogColumns))
		}
		var r EnergyRecord
		if r.Sweeps, err = strconv.ParseInt(row[0], 10, 64); err != nil {
			return nil, fmt.Errorf("parsing sweeps %q: %w", row[0], err)
		}
		vals := []*float64{&r.Energy, &r.MeanEnergy, &r.AcceptanceRatio, &r.MeanClusterSize}
		for k, dst := range vals {
			if *dst, err = strconv.ParseFloat(row[k+1], 64); err != nil {
				return nil, fmt.Errorf("parsing %s %q: %w", energyLogColumns[k+1], row[k+1], err)
			}
		}
		records = append(records, r)
	}
	return records, nil
}
