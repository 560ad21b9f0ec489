package edi

import (
	"time"

	"github.com/shaiso/discharge/internal/ui"
	"github.com/shaiso/discharge/internal/waiter"
)

// Столбцы таблиц портала.
const (
	recipientPhoneCol = 4
	recipientPickCol  = 0

	sentDateCol    = 1
	sentMessageCol = 5
	sentMenuCol    = 10
)

// noDataText — строка пустой таблицы.
const noDataText = "Ingen data i tabellen"

// sentDateLayout — формат даты в таблице отправленных сообщений.
const sentDateLayout = "02-01-2006 15:04"

// receiptPattern — имя скачанной квитанции.
const receiptPattern = "Meddelelse*.pdf"

var (
	nextButton = waiter.NewTarget("next button",
		ui.Name("Næste").WithRole("button").WithDepth(50),
		ui.ID("patientInformationNextButton").WithDepth(50),
	).Within(10 * time.Second)

	searchBox = waiter.NewTarget("recipient search box",
		ui.Class("form-control filter_search").WithRole("edit").WithDepth(50),
		ui.Class("form-control filter_search valid").WithRole("edit").WithDepth(50),
	).Within(10 * time.Second)

	recipientsTable = waiter.NewTarget("recipients table",
		ui.ID("dtRecipients").WithRole("table").WithDepth(50),
	)

	contentForm = waiter.NewTarget("content form",
		ui.ID("formId").WithDepth(50),
	)

	subjectField = waiter.NewTarget("subject field",
		ui.ID("ContentTitleInput").WithRole("edit").WithDepth(50),
	)

	bodyField = waiter.NewTarget("body field",
		ui.ID("ContentInput").WithRole("edit").WithDepth(50),
	)

	uploadInput = waiter.NewTarget("upload field",
		ui.Selector{Kind: ui.ByCSS, Criteria: "#createNewUpload input[type=file]"},
		ui.ID("createNewUpload").WithDepth(50),
	)

	uploadInProgress = waiter.NewTarget("upload in progress",
		ui.Name("En eller flere filer er under behandling. Du kan fortsætte til næste trin, når arbejdet er færdigt.").
			WithRole("text").WithDepth(20),
	)

	submitButton = waiter.NewTarget("send button",
		ui.ID("submitButton").WithRole("button"),
	)

	sentTable = waiter.NewTarget("sent messages table",
		ui.ID("dtSent").WithRole("table").WithDepth(50),
	)

	rowMenu = waiter.NewTarget("row menu",
		ui.Class("dropdown-menu show").WithRole("list").WithDepth(14),
	)

	saveMenuItem = waiter.NewTarget("save menu item",
		ui.Name(" Gem").WithRole("listitem").WithDepth(50),
		ui.Name("Gem").WithRole("listitem").WithDepth(50),
	)

	saveAsPDF = waiter.NewTarget("save as pdf",
		ui.Name("Gem som PDF").WithRole("link").WithDepth(50),
	)
)
