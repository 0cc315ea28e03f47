package handler

import (
	"encoding/json"
	"testing"

	"github.com/deppfellow/booking-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlag_Value(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *string
	}{
		{name: "absent", body: `{"jobid":1}`, want: nil},
		{name: "string true", body: `{"jobid":1,"flagged":"true"}`, want: ptr(model.FlagYes)},
		{name: "bool true", body: `{"jobid":1,"flagged":true}`, want: ptr(model.FlagYes)},
		{name: "string false", body: `{"jobid":1,"flagged":"false"}`, want: ptr(model.FlagNo)},
		{name: "anything else", body: `{"jobid":1,"flagged":"on"}`, want: ptr(model.FlagNo)},
		{name: "empty", body: `{"jobid":1,"flagged":""}`, want: ptr(model.FlagNo)},
		{name: "number", body: `{"jobid":1,"flagged":1}`, want: ptr(model.FlagNo)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req DistanceFeedRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			_, changes := req.Changes()
			assert.Equal(t, tt.want, changes.Flagged)
		})
	}
}

func TestDistanceFeedRequest_ChangesDropsEmptyText(t *testing.T) {
	req := DistanceFeedRequest{JobID: 1, Time: "00:20", AdminComment: ""}

	distance, job := req.Changes()

	assert.Nil(t, distance.Distance)
	assert.Equal(t, "00:20", *distance.Time)
	assert.Equal(t, "00:20", *job.Time)
	assert.Nil(t, job.AdminComments)
	assert.Nil(t, job.Flagged)
}

func TestListJobsRequest_FilterDefaults(t *testing.T) {
	filter := (&ListJobsRequest{Status: "pending"}).Filter()

	assert.Equal(t, model.JobStatusPending, filter.Status)
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, defaultPerPage, filter.PerPage)
}

func TestCreateJobRequest_Validate(t *testing.T) {
	req := CreateJobRequest{FromLanguageID: 1, Duration: 30, CustomerPhysicalType: true}
	assert.NoError(t, req.Validate())

	req.CustomerPhysicalType = false
	assert.Error(t, req.Validate())

	req.CustomerPhoneType = true
	req.Gender = "other"
	assert.Error(t, req.Validate())
}

func ptr(s string) *string {
	return &s
}

func TestJobID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		body    string
		want    JobID
		wantErr bool
	}{
		{body: `12`, want: 12},
		{body: `"12"`, want: 12},
		{body: `"abc"`, wantErr: true},
		{body: `1.5`, wantErr: true},
		{body: `false`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var id JobID
			err := json.Unmarshal([]byte(tt.body), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}
