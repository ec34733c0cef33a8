package crdt

import "encoding/json"

// fieldValue is one entry of a last-writer-wins register: a JSON value
// stamped with the id of the operation that set it.
type fieldValue struct {
	ID    OpID            `json:"id"`
	Value json.RawMessage `json:"value"`
}

// lwwMap is a generic string-keyed last-writer-wins register set. Two
// replicas applying the same set of Set calls, in any order, end up
// with the same map: ties resolve by OpID, and re-applying an id that
// already lost (or already won) is a no-op.
type lwwMap struct {
	fields map[string]fieldValue
}

func newLWWMap() *lwwMap {
	return &lwwMap{fields: make(map[string]fieldValue)}
}

// set installs value under key if id is newer than whatever is
// already stored there. Returns true if the map changed.
func (m *lwwMap) set(key string, id OpID, value json.RawMessage) bool {
	existing, ok := m.fields[key]
	if ok && !existing.ID.less(id) {
		return false
	}
	m.fields[key] = fieldValue{ID: id, Value: value}
	return true
}

func (m *lwwMap) clear(key string, id OpID) bool {
	existing, ok := m.fields[key]
	if ok && !existing.ID.less(id) {
		return false
	}
	delete(m.fields, key)
	return true
}

func (m *lwwMap) get(key string) (json.RawMessage, bool) {
	v, ok := m.fields[key]
	if !ok {
		return nil, false
	}
	return v.Value, true
}

func (m *lwwMap) getString(key string) (string, bool) {
	raw, ok := m.get(key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// nodeState is one entry of an ordered tree: a parent pointer and
// fractional-index sibling key, both last-writer-wins, plus a
// monotonic delete flag. Deletion is a G-Set-style union: once any
// replica observes a delete for a node, every replica that has
// observed it treats the node as gone, regardless of arrival order of
// any competing move.
type nodeState struct {
	ParentID string `json:"parentId"` // "" means root
	FracKey  string `json:"fracKey"`
	MoveID   OpID   `json:"moveId"`
	Deleted  bool   `json:"deleted"`
}

// nodeRegistry tracks the existence, placement, and tombstone state of
// nodes in one ordered tree (chapters or notes).
type nodeRegistry struct {
	nodes map[string]*nodeState
}

func newNodeRegistry() *nodeRegistry {
	return &nodeRegistry{nodes: make(map[string]*nodeState)}
}

func (r *nodeRegistry) create(id string, parentID string, fracKey string, opID OpID) {
	if _, ok := r.nodes[id]; ok {
		return
	}
	r.nodes[id] = &nodeState{ParentID: parentID, FracKey: fracKey, MoveID: opID}
}

func (r *nodeRegistry) move(id string, parentID string, fracKey string, opID OpID) {
	n, ok := r.nodes[id]
	if !ok {
		return
	}
	if !n.MoveID.less(opID) {
		return
	}
	n.ParentID, n.FracKey, n.MoveID = parentID, fracKey, opID
}

func (r *nodeRegistry) delete(id string) {
	if n, ok := r.nodes[id]; ok {
		n.Deleted = true
	}
}

func (r *nodeRegistry) exists(id string) bool {
	n, ok := r.nodes[id]
	return ok && !n.Deleted
}

// children returns the ids of live nodes directly under parentID
// ("" for root), ordered by fractional key then id for determinism.
func (r *nodeRegistry) children(parentID string) []string {
	var out []string
	for id, n := range r.nodes {
		if n.Deleted || n.ParentID != parentID {
			continue
		}
		out = append(out, id)
	}
	sortByFracKey(out, r.nodes)
	return out
}

func sortByFracKey(ids []string, nodes map[string]*nodeState) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0; j-- {
			a, b := nodes[ids[j-1]], nodes[ids[j]]
			if a.FracKey < b.FracKey || (a.FracKey == b.FracKey && ids[j-1] <= ids[j]) {
				break
			}
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
