package cache

import (
	"sync"
	"time"
)

// TagType groups cached responses for invalidation.
type TagType string

const (
	TagAuth           TagType = "Auth"
	TagUser           TagType = "User"
	TagCourse         TagType = "Course"
	TagEnrollment     TagType = "Enrollment"
	TagCategory       TagType = "Category"
	TagFile           TagType = "File"
	TagCourseOffering TagType = "CourseOffering"
	TagCourseSection  TagType = "CourseSection"
	TagSectionModule  TagType = "SectionModule"
	TagZoomMeeting    TagType = "ZoomMeeting"
	TagZoomRecording  TagType = "ZoomRecording"
)

// Tag marks a cached response. An empty ID stands for the whole collection
// (list endpoints); invalidating a tag with an ID also drops the lists of that type.
type Tag struct {
	Type TagType
	ID   string
}

func List(t TagType) Tag {
	return Tag{Type: t}
}

func Item(t TagType, id string) Tag {
	return Tag{Type: t, ID: id}
}

// matches reports whether invalidating inv must drop an entry tagged held.
func (inv Tag) matches(held Tag) bool {
	if inv.Type != held.Type {
		return false
	}
	return inv.ID == "" || held.ID == "" || inv.ID == held.ID
}

type entry struct {
	data    []byte
	tags    []Tag
	expires time.Time
}

// NowTimeFunc is used for expiry checks.
var NowTimeFunc = time.Now

// Cache holds raw GET responses keyed by request URL until they expire or one
// of their tags is invalidated. A zero ttl disables caching.
type Cache struct {
	ttl     time.Duration
	entries map[string]entry
	lock    sync.Mutex
}

func New(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: make(map[string]entry)}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.ttl > 0
}

func (c *Cache) Get(key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !NowTimeFunc().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.data, true
}

func (c *Cache) Put(key string, data []byte, tags ...Tag) {
	if !c.Enabled() {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.entries[key] = entry{data: data, tags: tags, expires: NowTimeFunc().Add(c.ttl)}
}

// Invalidate drops every entry carrying a tag matched by any of tags.
// It returns the number of entries removed.
func (c *Cache) Invalidate(tags ...Tag) int {
	if !c.Enabled() || len(tags) == 0 {
		return 0
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	removed := 0
	for key, e := range c.entries {
		if anyMatch(tags, e.tags) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Reset empties the cache.
func (c *Cache) Reset() {
	if c == nil {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.entries = make(map[string]entry)
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.entries)
}

func anyMatch(invalidate, held []Tag) bool {
	for _, inv := range invalidate {
		for _, h := range held {
			if inv.matches(h) {
				return true
			}
		}
	}
	return false
}
