package service

// LimiterCount returns how many chat limiters are held.
func (s *ChatService) LimiterCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}
