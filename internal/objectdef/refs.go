package objectdef

import "github.com/tracmeta/catalog/internal/catalogapi"

// extractorFunc pulls every TagSelector embedded in one definition's
// payload. Per spec §9's design note this is a table of per-variant
// extractors keyed by object type, not a recursive reflective walk.
type extractorFunc func(*Definition) []*catalogapi.TagSelector

var extractors = map[ObjectType]extractorFunc{
	DATA: func(d *Definition) []*catalogapi.TagSelector {
		if d.Data == nil {
			return nil
		}
		var out []*catalogapi.TagSelector
		if d.Data.SchemaId != nil {
			out = append(out, d.Data.SchemaId)
		}
		if d.Data.StorageId != nil {
			out = append(out, d.Data.StorageId)
		}
		return out
	},
	MODEL: func(d *Definition) []*catalogapi.TagSelector {
		if d.Model == nil {
			return nil
		}
		return []*catalogapi.TagSelector{&d.Model.Repository}
	},
	FLOW: func(d *Definition) []*catalogapi.TagSelector {
		// Flow nodes reference models/schemas by name within the flow
		// graph, not by embedded TagSelector; the job that *runs* a flow
		// supplies the concrete selectors. No cross-object references to
		// extract here.
		return nil
	},
	JOB: func(d *Definition) []*catalogapi.TagSelector {
		if d.Job == nil {
			return nil
		}
		var out []*catalogapi.TagSelector
		if d.Job.Target != nil {
			out = append(out, d.Job.Target)
		}
		if d.Job.PriorJob != nil {
			out = append(out, d.Job.PriorJob)
		}
		if d.Job.ResultId != nil {
			out = append(out, d.Job.ResultId)
		}
		for _, v := range d.Job.Inputs {
			v := v
			out = append(out, &v)
		}
		for _, v := range d.Job.Outputs {
			v := v
			out = append(out, &v)
		}
		return out
	},
	FILE: func(d *Definition) []*catalogapi.TagSelector {
		if d.File == nil {
			return nil
		}
		return []*catalogapi.TagSelector{&d.File.StorageId}
	},
	SCHEMA:   func(d *Definition) []*catalogapi.TagSelector { return nil },
	STORAGE:  func(d *Definition) []*catalogapi.TagSelector { return nil },
	CUSTOM:   func(d *Definition) []*catalogapi.TagSelector { return nil },
	CONFIG:   func(d *Definition) []*catalogapi.TagSelector { return nil },
	RESOURCE: func(d *Definition) []*catalogapi.TagSelector { return nil },
}

// ExtractSelectors returns every TagSelector embedded in d's payload,
// dispatched by d.Type via the table above.
func ExtractSelectors(d *Definition) []*catalogapi.TagSelector {
	fn, ok := extractors[d.Type]
	if !ok {
		return nil
	}
	return fn(d)
}
