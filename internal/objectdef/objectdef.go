// Package objectdef defines the ten ObjectDefinition variants the catalog
// stores and the per-variant reference extractors used for reference
// integrity checking (catalog invariant 6).
package objectdef

import "github.com/tracmeta/catalog/internal/catalogapi"

// ObjectType re-exports catalogapi's object-kind enum so callers that only
// deal in definitions don't need to import catalogapi directly.
type ObjectType = catalogapi.ObjectType

const (
	DATA     = catalogapi.DATA
	MODEL    = catalogapi.MODEL
	FLOW     = catalogapi.FLOW
	JOB      = catalogapi.JOB
	FILE     = catalogapi.FILE
	SCHEMA   = catalogapi.SCHEMA
	STORAGE  = catalogapi.STORAGE
	CUSTOM   = catalogapi.CUSTOM
	CONFIG   = catalogapi.CONFIG
	RESOURCE = catalogapi.RESOURCE
)

// Definition is the tagged union over object kinds. Exactly one payload
// field is populated, selected by Type. The store treats Definition as
// opaque apart from reference extraction (ExtractSelectors below).
type Definition struct {
	Type ObjectType

	Data     *DataDefinition
	Model    *ModelDefinition
	Flow     *FlowDefinition
	Job      *JobDefinition
	File     *FileDefinition
	Schema   *SchemaDefinition
	Storage  *StorageDefinition
	Custom   *CustomDefinition
	Config   *ConfigDefinition
	Resource *ResourceDefinition
}

type DataDefinition struct {
	SchemaId    *catalogapi.TagSelector
	StorageId   *catalogapi.TagSelector
	TableSchema *SchemaDefinition // inline schema for "external" loads with no SCHEMA object
}

type ModelDefinition struct {
	Language     string
	Repository   catalogapi.TagSelector
	Path         string
	EntryPoint   string
	Version      string
	Parameters   map[string]ModelParameter
	Inputs       map[string]string
	Outputs      map[string]string
}

type ModelParameter struct {
	ParamType    string
	DefaultValue string
}

type FlowNodeType string

const (
	FlowNodeInput     FlowNodeType = "INPUT"
	FlowNodeOutput    FlowNodeType = "OUTPUT"
	FlowNodeModel     FlowNodeType = "MODEL"
	FlowNodeParameter FlowNodeType = "PARAMETER"
)

type FlowNode struct {
	NodeType     FlowNodeType
	NodeSearch   []string // names of upstream nodes this model node depends on, for MODEL nodes
	Parameters   []string
	Inputs       []string
	Outputs      []string
}

type FlowEdge struct {
	Source FlowSocket
	Target FlowSocket
}

// FlowSocket names a node and, for MODEL nodes, which of its named
// input/output sockets the edge attaches to.
type FlowSocket struct {
	Node   string
	Socket string
}

type FlowDefinition struct {
	Nodes      map[string]FlowNode
	Edges      []FlowEdge
	Parameters map[string]ModelParameter
	Inputs     map[string]string
	Outputs    map[string]string
}

type JobStatus string

const (
	JobStatusPreparing  JobStatus = "PREPARING"
	JobStatusValidated  JobStatus = "VALIDATED"
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusRunning    JobStatus = "RUNNING"
	JobStatusFinishing  JobStatus = "FINISHING"
	JobStatusSucceeded  JobStatus = "SUCCEEDED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

type JobDefinition struct {
	JobType    string
	Target     *catalogapi.TagSelector
	Parameters map[string]string
	Inputs     map[string]catalogapi.TagSelector
	Outputs    map[string]catalogapi.TagSelector
	PriorJob   *catalogapi.TagSelector
	ResultId   *catalogapi.TagSelector
	Status     JobStatus
}

type FileDefinition struct {
	Name      string
	Extension string
	MimeType  string
	Size      int64
	StorageId catalogapi.TagSelector
}

type FieldSchema struct {
	FieldName   string
	FieldOrder  int
	FieldType   string // one of typesys.BasicType names
	Label       string
	BusinessKey bool
	Categorical bool
	NotNull     bool
}

type SchemaDefinition struct {
	SchemaType string // "TABLE"
	Fields     []FieldSchema
}

type CopyStatus string

const (
	CopyStatusPending   CopyStatus = "COPY_PENDING"
	CopyStatusAvailable CopyStatus = "COPY_AVAILABLE"
	CopyStatusExpunged  CopyStatus = "COPY_EXPUNGED"
)

type StorageCopy struct {
	StorageKey  string
	StoragePath string
	CopyStatus  CopyStatus
}

type StorageIncarnation struct {
	IncarnationIndex int
	Copies           []StorageCopy
}

type StorageItem struct {
	Incarnations []StorageIncarnation
}

type StorageDefinition struct {
	DataItems map[string]StorageItem
	Layout    string
}

type CustomDefinition struct {
	CustomSchemaType string
	Data             []byte
}

type ConfigDefinition struct {
	ConfigType string
	ConfigKey  string
	Details    []byte
}

type ResourceDefinition struct {
	ResourceType      string
	Protocol          string
	PublicProperties  map[string]string
}
