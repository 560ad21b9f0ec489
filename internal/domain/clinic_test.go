package domain

import "testing"

func TestResolveRecipient_SharedContractor(t *testing.T) {
	tests := []struct {
		contractor string
		label      string
	}{
		{ContractorHasleTorv, " på Tandklinikken Hasle Torv "},
		{ContractorBrobjergparken, " på Tandklinikken Brobjergparken "},
	}

	for _, tt := range tests {
		t.Run(tt.contractor, func(t *testing.T) {
			r := ResolveRecipient(ExternClinic{ContractorID: tt.contractor, PhoneNumber: "11111111"})

			if r.ContractorID != "485055" {
				t.Errorf("expected contractor 485055, got %s", r.ContractorID)
			}
			if r.Phone != "86135240" {
				t.Errorf("expected phone 86135240, got %s", r.Phone)
			}
			if r.ClinicLabel != tt.label {
				t.Errorf("expected label %q, got %q", tt.label, r.ClinicLabel)
			}
		})
	}
}

func TestResolveRecipient_Regular(t *testing.T) {
	r := ResolveRecipient(ExternClinic{ContractorID: "123456", PhoneNumber: "87654321"})

	if r.ContractorID != "123456" || r.Phone != "87654321" {
		t.Errorf("unexpected recipient: %+v", r)
	}
	if got := r.Subject("Udskrivning", "Anna Jensen"); got != "Udskrivning Anna Jensen" {
		t.Errorf("unexpected subject: %q", got)
	}
}

func TestRecipient_Subject_HasleTorv(t *testing.T) {
	r := ResolveRecipient(ExternClinic{ContractorID: ContractorHasleTorv})

	got := r.Subject("Udskrivning", "Anna Jensen")
	want := "Udskrivning på Tandklinikken Hasle Torv Anna Jensen"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRecipient_SearchTerm(t *testing.T) {
	if got := (Recipient{ContractorID: "1", Phone: "2"}).SearchTerm(); got != "1" {
		t.Errorf("expected contractor, got %s", got)
	}
	// Без договора поиск идёт по телефону
	if got := (Recipient{Phone: "2"}).SearchTerm(); got != "2" {
		t.Errorf("expected phone, got %s", got)
	}
}
