package model

// Mapping edge endpoint kinds.
const (
	KindUser   = "user"
	KindGroup  = "group"
	KindWallet = "wallet"
)

// MappingEdges is a slice of MappingEdge.
type MappingEdges []MappingEdge

// MappingEdge represents a row in mapping_edges: a directed funding relation
// {source_kind, source} -> {target_kind, target}. Legal shapes are
// user->wallet, group->wallet and group->group. Higher priority wins when
// several edges leave the same source.
//
// Edges are written only through the administrative interface; the ingestion
// engine reads them as an immutable snapshot per run.
type MappingEdge struct {
	ID         uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SourceKind string `gorm:"column:source_kind;uniqueIndex:uq_mapping_edge" json:"source_kind"`
	Source     string `gorm:"column:source;uniqueIndex:uq_mapping_edge" json:"source"`
	TargetKind string `gorm:"column:target_kind;uniqueIndex:uq_mapping_edge" json:"target_kind"`
	Target     string `gorm:"column:target;uniqueIndex:uq_mapping_edge" json:"target"`
	Priority   int    `gorm:"column:priority" json:"priority"`
}

func (MappingEdge) TableName() string { return "mapping_edges" }
