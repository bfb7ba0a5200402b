package engine

import (
	"fmt"
	"strings"
)

// Day 星期（周一至周六）
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// Period 每天的固定课时段（S1/S2/S3）
type Period int

const (
	S1 Period = iota + 1
	S2
	S3
)

const (
	DaysPerWeek   = 6
	PeriodsPerDay = 3
	SlotsPerWeek  = DaysPerWeek * PeriodsPerDay
	slotKeySep    = "/"
	unknownName   = "?"
)

var dayNames = [...]string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func (d Day) Valid() bool { return d >= Monday && d <= Saturday }

func (d Day) String() string {
	if !d.Valid() {
		return unknownName
	}
	return dayNames[d]
}

func (p Period) Valid() bool { return p >= S1 && p <= S3 }

func (p Period) String() string {
	if !p.Valid() {
		return unknownName
	}
	return fmt.Sprintf("S%d", int(p))
}

// Slot 周课表中的一个格子（星期 × 课时段）
type Slot struct {
	Day    Day
	Period Period
}

// Valid 是否为 6×3 固定网格中的合法格子
func (s Slot) Valid() bool { return s.Day.Valid() && s.Period.Valid() }

// String 格式为 "Mon/S1"，同时作为 JSON / 数据库中的键
func (s Slot) String() string { return s.Day.String() + slotKeySep + s.Period.String() }

// Before 规范顺序比较：先按星期，再按课时段
func (s Slot) Before(o Slot) bool {
	if s.Day != o.Day {
		return s.Day < o.Day
	}
	return s.Period < o.Period
}

// AllSlots 按规范顺序（周一→周六，S1→S3）返回全部 18 个格子
func AllSlots() []Slot {
	slots := make([]Slot, 0, SlotsPerWeek)
	for d := Monday; d <= Saturday; d++ {
		for p := S1; p <= S3; p++ {
			slots = append(slots, Slot{Day: d, Period: p})
		}
	}
	return slots
}

// ParseDay 解析 "Mon".."Sat"（大小写不敏感）
func ParseDay(s string) (Day, error) {
	for i := 1; i < len(dayNames); i++ {
		if strings.EqualFold(dayNames[i], strings.TrimSpace(s)) {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("%w: 星期 %q", ErrInvalidSlot, s)
}

// ParsePeriod 解析 "S1".."S3"
func ParsePeriod(s string) (Period, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "S1":
		return S1, nil
	case "S2":
		return S2, nil
	case "S3":
		return S3, nil
	}
	return 0, fmt.Errorf("%w: 课时段 %q", ErrInvalidSlot, s)
}

// NewSlot 由星期与课时段字符串构造并校验格子
func NewSlot(day, period string) (Slot, error) {
	d, err := ParseDay(day)
	if err != nil {
		return Slot{}, err
	}
	p, err := ParsePeriod(period)
	if err != nil {
		return Slot{}, err
	}
	return Slot{Day: d, Period: p}, nil
}

// ParseSlot 解析 "Mon/S1" 形式的键
func ParseSlot(key string) (Slot, error) {
	day, period, ok := strings.Cut(key, slotKeySep)
	if !ok {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidSlot, key)
	}
	return NewSlot(day, period)
}
