package fence

import "time"

const (
	DefaultAlarmThreshold = 100
	DefaultAlertSequences = 2

	AlarmHighHz = 1000
	AlarmLowHz  = 800
	AlarmTone   = 500 * time.Millisecond
	AlarmHold   = 500 * time.Millisecond
)

// AlarmState is the state of the short-circuit alarm.
type AlarmState int

const (
	Idle AlarmState = iota
	Alerting
)

func (s AlarmState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Alerting:
		return "alerting"
	}
	return "unknown"
}

// ShortStatus is the outcome of one evaluation.
type ShortStatus struct {
	// Count is the telemetry value: the number of lines at or above the
	// threshold when an alarm fired, zero otherwise.
	Count int
	// Qualifying is the number of lines at or above the threshold.
	Qualifying int
	// Flagged lists the lines strictly above the threshold, which are the
	// ones lit red during the alarm.
	Flagged []LineID
	Alarm   bool
}

// Detector correlates the lines of a sampling pass. When two or more lines
// carry signal at the same time the conductors are touching each other, and a
// blocking alarm sequence is played.
type Detector struct {
	reg       *Registry
	ind       Indicators
	buzzer    Buzzer
	sleep     Sleeper
	threshold int
	sequences int

	state AlarmState

	// OnTransition is called on every state change, if set.
	OnTransition func(from, to AlarmState)
}

// NewDetector creates a detector in the Idle state.
func NewDetector(reg *Registry, ind Indicators, buzzer Buzzer, sleep Sleeper, threshold, sequences int) *Detector {
	if sleep == nil {
		sleep = RealSleeper
	}
	return &Detector{
		reg:       reg,
		ind:       ind,
		buzzer:    buzzer,
		sleep:     sleep,
		threshold: threshold,
		sequences: sequences,
	}
}

// State returns the current alarm state.
func (d *Detector) State() AlarmState {
	return d.state
}

// Evaluate counts the lines whose raw sample reaches the threshold. With two
// or more it runs the alarm sequence to completion before returning.
//
// Triggering uses >= while flagging a line red uses >, so two lines sitting
// exactly on the threshold sound the alarm without lighting anything.
func (d *Detector) Evaluate(set SampleSet) ShortStatus {
	st := ShortStatus{}
	for _, s := range set.Samples {
		if s.Raw >= d.threshold {
			st.Qualifying++
		}
		if s.Raw > d.threshold {
			st.Flagged = append(st.Flagged, s.Line)
		}
	}
	if st.Qualifying < 2 {
		st.Flagged = nil
		return st
	}

	st.Count = st.Qualifying
	st.Alarm = true
	d.alarm(st.Flagged)
	return st
}

func (d *Detector) alarm(flagged []LineID) {
	d.transition(Alerting)

	d.ind.Clear()
	for i := 0; i < d.sequences; i++ {
		for _, id := range flagged {
			if l := d.reg.Line(id); l != nil {
				d.ind.SetIndicator(l.Zone, Red)
			}
		}
		d.ind.Show()
		d.buzzer.Tone(AlarmHighHz, AlarmTone)
		d.sleep.Sleep(AlarmHold)

		d.ind.Clear()
		d.ind.Show()
		d.buzzer.Tone(AlarmLowHz, AlarmTone)
		d.sleep.Sleep(AlarmHold)
	}

	d.transition(Idle)
}

func (d *Detector) transition(to AlarmState) {
	from := d.state
	d.state = to
	if d.OnTransition != nil && from != to {
		d.OnTransition(from, to)
	}
}
