// Package session tracks which files are open in the editor and which one
// is active.
package session

import "cipherstudio/internal/domain/models"

// Session keeps the ordered set of open files and the active file. At most
// one file is active, and it is always a member of the open list (or nil).
type Session struct {
	open   []*models.Node
	active *models.Node
}

// New returns an empty editor session.
func New() *Session {
	return &Session{}
}

// OpenFile appends a file to the open list if absent and makes it active.
// Folders are ignored.
func (s *Session) OpenFile(n *models.Node) {
	if n == nil || n.Type != models.NodeTypeFile {
		return
	}
	if s.find(n.ID) == -1 {
		s.open = append(s.open, n)
	}
	s.active = n
}

// CloseFile removes a file from the open list. When the closed file was
// active, the previous last entry of the remaining list becomes active, or
// nil when none remain.
func (s *Session) CloseFile(id string) {
	i := s.find(id)
	if i == -1 {
		return
	}
	wasActive := s.active != nil && s.active.ID == id
	s.open = append(s.open[:i], s.open[i+1:]...)
	if wasActive {
		if len(s.open) > 0 {
			s.active = s.open[len(s.open)-1]
		} else {
			s.active = nil
		}
	}
}

// OpenFiles returns the open files in insertion order.
func (s *Session) OpenFiles() []*models.Node {
	out := make([]*models.Node, len(s.open))
	copy(out, s.open)
	return out
}

// ActiveFile returns the active file, or nil.
func (s *Session) ActiveFile() *models.Node {
	return s.active
}

// SetActive marks an already-open file active. Unknown ids are ignored.
func (s *Session) SetActive(id string) {
	if i := s.find(id); i != -1 {
		s.active = s.open[i]
	}
}

// Reset clears all open-file state, e.g. when a different project loads.
func (s *Session) Reset() {
	s.open = nil
	s.active = nil
}

func (s *Session) find(id string) int {
	for i, f := range s.open {
		if f.ID == id {
			return i
		}
	}
	return -1
}
