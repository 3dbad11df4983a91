package memory

// Snapshot is the serializable contents of a Store.
type Snapshot struct {
	Events   []Event   `json:"events"`
	Journals []Journal `json:"journals"`
	Gossip   []Gossip  `json:"gossip"`
	NextSeq  int64     `json:"next_seq"`
	LastDay  int       `json:"last_day"`
}

// Snapshot copies the store's contents.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Events:  s.Events(),
		Gossip:  s.Gossip(),
		NextSeq: s.nextSeq,
		LastDay: s.lastDay,
	}
	for _, id := range s.order {
		snap.Journals = append(snap.Journals, s.journals[id].clone())
	}
	return snap
}

// Restore replaces the store's contents with snap.
func (s *Store) Restore(snap Snapshot) {
	s.Reset()
	s.log = append([]Event(nil), snap.Events...)
	for i := range snap.Journals {
		j := snap.Journals[i].clone()
		s.journals[j.Agent] = &j
		s.order = append(s.order, j.Agent)
	}
	for i := range snap.Gossip {
		g := snap.Gossip[i].clone()
		s.gossip = append(s.gossip, &g)
	}
	s.nextSeq = snap.NextSeq
	if s.nextSeq < 1 {
		s.nextSeq = int64(len(s.log)) + 1
	}
	s.lastDay = snap.LastDay
}
