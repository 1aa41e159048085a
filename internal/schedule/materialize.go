package schedule

// Materialization horizons, in days. Enrollment generates the full
// long-range set once; a schedule edit only regenerates the near future
// (history is never rewritten, so a shorter horizon keeps the delete +
// reinsert batch small).
const (
	HorizonEnroll     = 52 * 7 * 7 // seven years of whole weeks
	HorizonReschedule = 26 * 7     // six months
)

// Slot is one concrete dated occurrence produced from a Template.
type Slot struct {
	Date string // YYYY-MM-DD
	Time string // HH:MM
}

// Materialize expands a weekly template into dated slots. It walks every
// calendar day from startDate for horizonDays days with a single
// ascending cursor and yields a slot for each day whose weekday appears
// in the template. Output is therefore strictly ascending by date.
func Materialize(tpl Template, startDate string, horizonDays int) ([]Slot, error) {
	day, err := ParseDate(startDate)
	if err != nil {
		return nil, err
	}

	var slots []Slot
	for i := 0; i < horizonDays; i++ {
		if clock, ok := tpl[day.Weekday()]; ok {
			slots = append(slots, Slot{Date: day.Format(DateLayout), Time: clock})
		}
		day = day.AddDate(0, 0, 1)
	}
	return slots, nil
}
