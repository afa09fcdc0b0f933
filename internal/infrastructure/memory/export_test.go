package memory

// LockCount cantidad de registros con mutex vivo en el mapa de bloqueos.
func (s *Store) LockCount() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}
