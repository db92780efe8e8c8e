package lottery

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func validInput() CloseInput {
	return CloseInput{
		StoreID:     uuid.NewString(),
		ShiftID:     uuid.NewString(),
		UserID:      uuid.NewString(),
		EntryMethod: EntryMethodScan,
		Closings: []PackClosing{
			{PackID: uuid.NewString(), ClosingSerial: "015"},
		},
	}
}

func TestCloseInputValidateAccepts(t *testing.T) {
	require.NoError(t, validInput().Validate())
}

func TestCloseInputValidateRejectsBadStoreID(t *testing.T) {
	in := validInput()
	in.StoreID = "not-a-uuid"
	err := in.Validate()
	require.Error(t, err)
	require.Equal(t, CodeInvalidClosings, CodeOf(err))
}

func TestCloseInputValidateRejectsBadEntryMethod(t *testing.T) {
	in := validInput()
	in.EntryMethod = "KEYED"
	require.Equal(t, CodeInvalidClosings, CodeOf(in.Validate()))
}

func TestCloseInputValidateRejectsEmptyClosings(t *testing.T) {
	in := validInput()
	in.Closings = nil
	require.Equal(t, CodeInvalidClosings, CodeOf(in.Validate()))
}

func TestCloseInputValidateRejectsBadSerial(t *testing.T) {
	in := validInput()
	in.Closings[0].ClosingSerial = "15"
	require.Equal(t, CodeInvalidClosings, CodeOf(in.Validate()))
}

func TestCloseInputValidateRejectsDuplicatePacks(t *testing.T) {
	in := validInput()
	in.Closings = append(in.Closings, PackClosing{PackID: in.Closings[0].PackID, ClosingSerial: "020"})
	err := in.Validate()
	require.Equal(t, CodeInvalidClosings, CodeOf(err))
}

func TestValidateSerialBoundsReportsPackAndBounds(t *testing.T) {
	packID := uuid.NewString()
	packs := map[string]Pack{
		packID: {ID: packID, PackNumber: "P-100", SerialStart: "000", SerialEnd: "029"},
	}
	starting := map[string]string{packID: "010"}

	err := validateSerialBounds([]PackClosing{{PackID: packID, ClosingSerial: "030"}}, packs, starting)
	require.Error(t, err)
	var wErr *Error
	require.ErrorAs(t, err, &wErr)
	require.Equal(t, CodeSerialValidationFailed, wErr.Code)
	require.Equal(t, "P-100", wErr.Details["pack_number"])
	require.Equal(t, "010", wErr.Details["starting_serial"])
	require.Equal(t, "029", wErr.Details["serial_end"])

	// Below the resolved starting serial fails too.
	err = validateSerialBounds([]PackClosing{{PackID: packID, ClosingSerial: "005"}}, packs, starting)
	require.Equal(t, CodeSerialValidationFailed, CodeOf(err))

	// Equal to serial_end is a legal normal close.
	err = validateSerialBounds([]PackClosing{{PackID: packID, ClosingSerial: "029"}}, packs, starting)
	require.NoError(t, err)
}
