package domain

import (
	"reflect"
	"testing"
)

func TestGenerateTags(t *testing.T) {
	tests := []struct {
		name        string
		category    Category
		title       string
		description string
		want        []string
	}{
		{
			name:        "category always first",
			category:    CategoryRoads,
			title:       "Broken bench",
			description: "The bench is broken",
			want:        []string{"roads"},
		},
		{
			name:        "keyword match",
			category:    CategoryElectricity,
			title:       "Power outage in sector 5",
			description: "No electricity since morning",
			want:        []string{"electricity", "power"},
		},
		{
			name:        "urgent keywords",
			category:    CategoryWater,
			title:       "URGENT: water pipe burst",
			description: "Emergency, leakage flooding the street",
			want:        []string{"water", "urgent", "road"},
		},
		{
			name:        "multiple groups in fixed order",
			category:    CategoryMunicipal,
			title:       "Garbage on the road near the station",
			description: "Waste piling up, potholes everywhere, trains delayed",
			want:        []string{"municipal", "road", "railway"},
		},
		{
			name:        "category matching a group tag is not duplicated",
			category:    CategoryPolice,
			title:       "Theft reported",
			description: "Police took no action on the crime",
			want:        []string{"police"},
		},
		{
			name:        "case insensitive",
			category:    CategoryRailways,
			title:       "TRAIN delayed",
			description: "Station overcrowded",
			want:        []string{"railways", "railway"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateTags(tt.category, tt.title, tt.description)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GenerateTags() = %v, want %v", got, tt.want)
			}
		})
	}
}
