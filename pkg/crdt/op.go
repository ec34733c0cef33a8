package crdt

import "encoding/json"

// opKind discriminates the tagged union of mutations the engine
// replicates. Every exported mutation on Document is translated into
// one or more ops, applied locally, appended to the log, and available
// for export to other replicas.
type opKind string

const (
	opMetaSet     opKind = "metaSet"
	opMetaClear   opKind = "metaClear"
	opNodeCreate  opKind = "nodeCreate"
	opNodeMove    opKind = "nodeMove"
	opNodeDelete  opKind = "nodeDelete"
	opTextInsert  opKind = "textInsert"
	opTextDelete  opKind = "textDelete"
	opEntityMake  opKind = "entityMake"
	opEntityDrop  opKind = "entityDrop"
	opSessionSet  opKind = "sessionSet"
)

// Op is one replicated mutation, self-contained enough for any replica
// to apply regardless of what else it has already seen.
type Op struct {
	ID      OpID            `json:"id"`
	Kind    opKind          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func encodeOp(id OpID, kind opKind, payload any) Op {
	raw, _ := json.Marshal(payload)
	return Op{ID: id, Kind: kind, Payload: raw}
}

type metaSetPayload struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type metaClearPayload struct {
	Key string `json:"key"`
}

type nodePayload struct {
	Tree     string `json:"tree"`
	ID       string `json:"id"`
	ParentID string `json:"parentId,omitempty"`
	FracKey  string `json:"fracKey,omitempty"`
}

type textInsertPayload struct {
	Owner     string `json:"owner"`
	ElemID    OpID   `json:"elemId"`
	Origin    OpID   `json:"origin"`
	HasOrigin bool   `json:"hasOrigin"`
	Rune      rune   `json:"rune"`
}

type textDeletePayload struct {
	Owner  string `json:"owner"`
	ElemID OpID   `json:"elemId"`
}

type entityPayload struct {
	Schema string `json:"schema"`
	Slug   string `json:"slug"`
}

type sessionSetPayload struct {
	ID    string          `json:"id"`
	Value json.RawMessage `json:"value"`
}
