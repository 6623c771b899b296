package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// Case is one input/expected-output pair found in an archive.
type Case struct {
	InputName  string
	OutputName string
	Input      []byte
	Output     []byte
}

// TaskPlan collects the cases of one task, identified by the first
// path segment of its entries.
type TaskPlan struct {
	Name  string
	Cases []Case
}

// MissingPair records an output entry whose derived input entry was
// not present in the archive. These are soft warnings; the rest of
// the archive is still imported.
type MissingPair struct {
	Output string
	Input  string
}

// Plan is the parsed form of a task archive: tasks in natural name
// order, each with its cases in natural output-name order.
type Plan struct {
	Tasks   []TaskPlan
	Missing []MissingPair
}

// Parse reads a zip archive into an import plan. A malformed archive
// is a fatal error; a missing input/output pair is recorded in
// Plan.Missing and skipped. The result depends only on the set of
// entries, never on their order inside the archive.
func Parse(data []byte) (Plan, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Plan{}, fmt.Errorf("unreadable archive: %w", err)
	}

	files := make(map[string]*zip.File, len(reader.File))
	names := make([]string, 0, len(reader.File))
	taskSet := make(map[string]struct{})
	for _, f := range reader.File {
		// Directory entries still name a task segment, so a bare
		// directory with no files yields an empty task.
		taskSet[TaskSegment(f.Name)] = struct{}{}
		if f.FileInfo().IsDir() {
			continue
		}
		files[f.Name] = f
		names = append(names, f.Name)
	}

	taskNames := make([]string, 0, len(taskSet))
	for name := range taskSet {
		taskNames = append(taskNames, name)
	}
	SortNatural(taskNames)

	plans := make(map[string]*TaskPlan, len(taskNames))
	plan := Plan{Tasks: make([]TaskPlan, 0, len(taskNames))}
	for _, name := range taskNames {
		plan.Tasks = append(plan.Tasks, TaskPlan{Name: name})
		plans[name] = &plan.Tasks[len(plan.Tasks)-1]
	}

	SortNatural(names)
	for _, out := range names {
		in, ok := PairedInputName(out)
		if !ok {
			continue
		}
		inFile, exists := files[in]
		if !exists {
			plan.Missing = append(plan.Missing, MissingPair{Output: out, Input: in})
			continue
		}

		inputData, err := readEntry(inFile)
		if err != nil {
			return Plan{}, err
		}
		outputData, err := readEntry(files[out])
		if err != nil {
			return Plan{}, err
		}

		task := plans[TaskSegment(in)]
		task.Cases = append(task.Cases, Case{
			InputName:  in,
			OutputName: out,
			Input:      inputData,
			Output:     outputData,
		})
	}

	return plan, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("unreadable archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("unreadable archive entry %s: %w", f.Name, err)
	}
	return data, nil
}
