package bot

import (
	"fmt"
	stdhtml "html"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/marudor/marudor-liefert/internal/models"
)

const (
	textSomethingWentWrong = "Da ist etwas schiefgelaufen. Bitte versuche es gleich nochmal."
	textUnknownCommand     = "Diesen Befehl kenne ich nicht."
	textOperatorOnly       = "Dieser Befehl ist nur für @marudor... Oder willst du auch anfangen Franzbrötchen in die Welt zu liefern? ;)"
	textCallbackExpired    = "Diese Auswahl ist nicht mehr aktuell."
	textNothingToCancel    = "Es gibt gerade nichts abzubrechen."
	textCancelled          = "Okay, wir machen hier nicht weiter."

	textWelcome = "Willkommen bei @marudor's Franzbrötchen Lieferservice\n\n" + textAskHometown

	textAskHometown = "Sag mir wo du wohnst, damit ich dich benachrichtigen kann, wenn @marudor in deine Stadt kommt.\n" +
		"Du kannst mir auch deinen aktuellen Standort schicken."

	textAskHometownAgain   = "Sag mir bitte den Namen deiner Stadt."
	textLocationNotFound   = "Zu diesem Standort habe ich keine Stadt gefunden. Schreib mir bitte den Namen deiner Stadt."
	textLocationNotWorking = "Standorte kann ich gerade nicht auswerten. Schreib mir bitte den Namen deiner Stadt."

	textAskDate     = "An welchem Tag bist du unterwegs? (Verwende das Format <em>dd.mm.yyyy</em>)"
	textAnotherTrip = "Okay, noch eine Reise.\n\n" + textAskDate
	textNotADate    = "Ich hab keine Ahnung wovon du redest. Dir ist schon klar, dass ich ein Datum von dir wollte, oder? Probier's bitte nochmal!"

	textNoTimeMachines = "Solange noch keine Zeitmaschinen erfunden wurden, kannst du keine Reisen in der Vergangenheit anlegen.\n" +
		"Wann willst du wirklich reisen?"

	textAskCityAgain       = "In welche Stadt bist du unterwegs?"
	textNobodyLivesThere   = "Niemand wohnt in diesem Ort. Möchtest du die Reise trotzdem eintragen?"
	textUseYesNoButtons    = "Bitte antworte mit Ja oder Nein über die Knöpfe."
	textTripSaved          = "Deine Reise wurde gespeichert."
	textTripDiscarded      = "Da niemand in diesem Ort wohnt, habe ich die Reise verworfen."
	textWhatNext           = "Was möchtest du als nächstes tun?"
	textDone               = "Okay, das war's dann."
	textNextTrip           = "Nächste Reise eintragen"
	textFinished           = "Fertig"
	textUseDeletionButtons = "Bitte bestätige über die Knöpfe, ob die Reise abgesagt werden soll."

	textAskOrderAgain   = "Schreib mir bitte, wieviele - und welche - Franzbrötchen du bestellen möchtest."
	textOrderSaved      = "Deine Bestellung wurde gespeichert."
	textTripUnavailable = "Für diese Reise kann nicht mehr bestellt werden. Deine Bestellung wurde nicht gespeichert."

	textNoSuchTrip    = "Es gibt keine Reise mit dieser ID."
	textTripRemoved   = "Die Reise wurde entfernt."
	textTripKept      = "Ich habe die Reise nicht entfernt."
	textConfirmDelete = "Ja, sage die Reise ab"
	textYes           = "Ja"
	textNo            = "Nein"
	textShareLocation = "Aktuellen Standort senden"
)

// maxMessageLength is the most text Telegram accepts in one message,
// counted in UTF-16 code units.
const maxMessageLength = 4096

// maxOrderPreview caps an order text inside listings so a single entry always
// fits into a message.
const maxOrderPreview = 3000

func esc(s string) string {
	return stdhtml.EscapeString(s)
}

func textLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

// paginate joins header and entries with sep into as few messages as fit
// maxMessageLength. Entries are never split, so their markup stays balanced.
func paginate(header, sep string, entries []string) []string {
	var pages []string
	page := header
	for _, e := range entries {
		switch {
		case page == "":
			page = e
		case textLength(page)+textLength(sep)+textLength(e) > maxMessageLength:
			pages = append(pages, page)
			page = e
		default:
			page += sep + e
		}
	}
	return append(pages, page)
}

func commandIntro(operator bool) string {
	text := "\n\nDu kannst folgende Befehle ausführen:\n" +
		"/changehometown - Ändert den Ort zu dem du benachrichtigt wirst.\n" +
		"/myorders - Zeigt deine offenen Bestellungen."
	if operator {
		text += "\n\n<strong>Für @marudor:</strong>\n" +
			"/newop - Trage eine neue Reise ein.\n" +
			"/listops - Liste ausstehende Reisen auf"
	}
	return text
}

func operatorGreeting() string {
	return "Hallo @marudor." + commandIntro(true)
}

func welcomeBackText(username, hometown string, ops []models.Opportunity) string {
	var sb strings.Builder
	if username != "" {
		fmt.Fprintf(&sb, "Willkommen zurück, @%s\n\n", esc(username))
	} else {
		sb.WriteString("Willkommen zurück.\n\n")
	}
	if len(ops) > 0 {
		sb.WriteString("@marudor kommt an folgenden Tagen in deine Stadt:")
	} else {
		fmt.Fprintf(&sb, "@marudor hat keine Besuche in <strong>%s</strong> für die nächste Zeit geplant.", esc(hometown))
	}
	for _, op := range ops {
		fmt.Fprintf(&sb, "\n%s - Bestelle mit /order_%d", op.Date.Readable(), op.ID)
	}
	sb.WriteString(commandIntro(false))
	return sb.String()
}

func hometownSavedText(hometown string, ops []models.Opportunity) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Okay. Du wohnst in <strong>%s</strong>.\n\n", esc(hometown))
	if len(ops) == 0 {
		sb.WriteString("Aktuell sind keine Bestellmöglichkeiten verfügbar. Ich werde dich benachrichtigen, wenn es soweit ist.")
	} else {
		sb.WriteString("@marudor kommt an folgenden Tagen in deine Stadt:\n")
	}
	for _, op := range ops {
		fmt.Fprintf(&sb, "<strong>%s</strong>: Bestelle mit /order_%d\n", op.Date.Readable(), op.ID)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func askCityText(d models.Date) string {
	return fmt.Sprintf("In welche Stadt bist du am %s unterwegs?", d.Readable())
}

func tripSavedText(subscribers int) string {
	return fmt.Sprintf("%s\nIch werde jetzt die %d Benutzer in diesem Ort benachrichtigen.\n\n%s",
		textTripSaved, subscribers, textWhatNext)
}

func orderPromptText(op *models.Opportunity, existing *models.Order) string {
	text := fmt.Sprintf("Du möchtest eine Bestellung für den %s für <strong>%s</strong> machen.\n\n"+
		"Wieviele - und welche - Franzbrötchen möchtest du bestellen?", op.Date.Readable(), esc(op.City))
	if existing != nil && existing.OrderText != "" {
		text += fmt.Sprintf("\n\nBisher hast du bestellt: <em>%s</em>", esc(existing.OrderText))
	}
	return text
}

func myOrdersText(orders []models.UserOrder) []string {
	if len(orders) == 0 {
		return []string{"Du hast keine offenen Bestellungen."}
	}
	entries := make([]string, 0, len(orders))
	for _, o := range orders {
		entries = append(entries, fmt.Sprintf("Am %s in %s:\n<em>%s</em>\nBearbeite mit /order_%d",
			o.Date.Readable(), esc(o.City), esc(clip(o.OrderText, maxOrderPreview)), o.OpportunityID))
	}
	return paginate("Deine offenen Bestellungen:", "\n\n", entries)
}

func listOpportunitiesText(ops []models.Opportunity) []string {
	if len(ops) == 0 {
		return []string{"Es gibt aktuell keine eingetragenen Reisen."}
	}
	entries := make([]string, 0, len(ops))
	for _, op := range ops {
		entries = append(entries, fmt.Sprintf("Am %s nach <strong>%s</strong>"+
			"\n<em>Zeige Bestellungen</em>: /showorders_%d"+
			"\n<em>Lösche Reise</em>: /deleteop_%d",
			op.Date.Readable(), esc(op.City), op.ID, op.ID))
	}
	return paginate("Welche Bestellungen möchtest du einsehen?", "\n\n", entries)
}

func showOrdersText(op *models.Opportunity, lines []models.OrderLine) []string {
	if len(lines) == 0 {
		return []string{fmt.Sprintf("Bisher gibt es keine Bestellungen für deine Reise am %s nach <strong>%s</strong>",
			op.Date.Readable(), esc(op.City))}
	}
	entries := make([]string, 0, len(lines))
	for _, l := range lines {
		entries = append(entries, fmt.Sprintf("▶︎ %s: %s",
			esc(handle(l.TelegramUsername, l.TelegramUserID)), esc(clip(l.OrderText, maxOrderPreview))))
	}
	header := fmt.Sprintf("Bestellungen für deine Reise am %s nach <strong>%s</strong>\n",
		op.Date.Readable(), esc(op.City))
	return paginate(header, "\n", entries)
}

// handle names a user without a public username by their id.
func handle(username string, id int64) string {
	if username != "" {
		return "@" + username
	}
	return fmt.Sprintf("Nutzer %d", id)
}

func confirmDeleteText(op *models.Opportunity) string {
	return fmt.Sprintf("Bist du dir sicher, dass du deine Reise am %s nach <strong>%s</strong> absagen möchtest?",
		op.Date.Readable(), esc(op.City))
}

func cityLookupText(city string, ops []models.Opportunity) string {
	if len(ops) == 0 {
		return fmt.Sprintf("@marudor kommt in nächster Zeit nicht nach <strong>%s</strong>", esc(city))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "@marudor kommt an folgenden Tagen nach <strong>%s</strong>:\n", esc(city))
	for _, op := range ops {
		fmt.Fprintf(&sb, "\n%s: Bestelle mit /order_%d", op.Date.Readable(), op.ID)
	}
	return sb.String()
}
