package client

// TargetCache maps a transcription source identifier to the href of the
// target the server keeps for it. A Session owns exactly one; it is not safe
// for concurrent use.
type TargetCache struct {
	targets map[string]string
}

func NewTargetCache() *TargetCache {
	return &TargetCache{targets: make(map[string]string)}
}

func (c *TargetCache) Get(source string) (string, bool) {
	t, ok := c.targets[source]
	return t, ok && t != ""
}

func (c *TargetCache) Put(source, target string) {
	if target == "" {
		return
	}
	c.targets[source] = target
}

func (c *TargetCache) Forget(source string) {
	delete(c.targets, source)
}

func (c *TargetCache) Len() int { return len(c.targets) }
