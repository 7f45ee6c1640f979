package tracker

import (
	"time"

	"timetracker/internal/core/model"
)

const (
	fieldTitle        = "title"
	fieldStartTime    = "startTime"
	fieldEndTime      = "endTime"
	fieldBreakMinutes = "breakMinutes"
	fieldCalendar     = "calendar"
)

func formToData(form Form) map[string]any {
	data := model.CloneMap(form.Fields)
	if data == nil {
		data = map[string]any{}
	}
	data[fieldTitle] = form.Title
	data[fieldBreakMinutes] = form.BreakMinutes
	if form.StartTime != nil {
		data[fieldStartTime] = form.StartTime.Format(time.RFC3339Nano)
	}
	if form.EndTime != nil {
		data[fieldEndTime] = form.EndTime.Format(time.RFC3339Nano)
	}
	return data
}

func formFromData(data map[string]any) Form {
	var form Form
	for key, value := range data {
		switch key {
		case fieldTitle:
			form.Title, _ = value.(string)
		case fieldStartTime:
			form.StartTime = timeValue(value)
		case fieldEndTime:
			form.EndTime = timeValue(value)
		case fieldBreakMinutes:
			form.BreakMinutes, _ = numberValue(value)
		default:
			if form.Fields == nil {
				form.Fields = map[string]any{}
			}
			form.Fields[key] = value
		}
	}
	form.Fields = model.CloneMap(form.Fields)
	return form
}

// timeValue accepts RFC 3339 strings, decoded YAML timestamps, and epoch
// milliseconds.
func timeValue(value any) *time.Time {
	switch typed := value.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, typed)
		if err != nil {
			return nil
		}
		return &parsed
	case time.Time:
		return &typed
	default:
		if millis, ok := numberValue(value); ok {
			parsed := time.UnixMilli(int64(millis))
			return &parsed
		}
		return nil
	}
}

func numberValue(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	default:
		return 0, false
	}
}
