package message

// Messages holds the localized strings for one rendered order
// notification plus the bot command replies.
type Messages struct {
	NewOrder       string
	Customer       string
	Phone          string
	Total          string
	Products       string
	Date           string
	Unknown        string
	NoProducts     string
	OrderDataError string

	WelcomeBack    string
	Welcome        string
	LinkedNew      string
	LinkedSwitched string
	InvalidCode    string
	StatusActive   string
	StatusNone     string
	Cancelled      string
	NotLinked      string
	Help           string
	UnknownCommand string
}

// DefaultLang is used whenever the configured locale is unknown.
const DefaultLang = "tr"

var locales = map[string]Messages{
	"tr": {
		NewOrder:       "Yeni Siparis",
		Customer:       "Musteri",
		Phone:          "Telefon",
		Total:          "Toplam",
		Products:       "Urunler",
		Date:           "Tarih",
		Unknown:        "Bilinmiyor",
		NoProducts:     "Urun bilgisi mevcut degil",
		OrderDataError: "Siparis verisi okunamadi",

		WelcomeBack:    "Tekrar hosgeldin %s!\n\nAktif magazan: %s\n\nKomutlar:\n/durum - Bagli magazani gor\n/iptal - Bildirimleri iptal et\n/yardim - Yardim",
		Welcome:        "Hosgeldin %s!\n\nSiparis bildirimlerine hosgeldin.\n\nMagazana baglanmak icin:\n/bagla KOD\n\nMagazandan aldigin baglanti kodunu kullan.",
		LinkedNew:      "Basariyla baglandi!\n\nMagaza: %s\n\nArtik yeni siparisler icin bildirim alacaksin.",
		LinkedSwitched: "Magaza degistirildi!\n\nYeni magaza: %s\n\nArtik bu magazanin siparislerini alacaksin.",
		InvalidCode:    "Kod gecersiz: %s\n\nLutfen dogru kodu gir veya magazandan yeni kod al.",
		StatusActive:   "Aktif durumdasin\n\nMagaza: %s\nBaglanti tarihi: %s\n\nSiparis bildirimleri aktif.",
		StatusNone:     "Henuz bir magazaya bagli degilsin.\n\nBaglanmak icin:\n/bagla KOD",
		Cancelled:      "Bildirimler iptal edildi.\n\nArtik %s magazasindan bildirim almayacaksin.\n\nTekrar baglanmak icin /bagla komutunu kullan.",
		NotLinked:      "Zaten bir magazaya bagli degilsin.",
		Help:           "Komutlar\n\n/start - Baslangic\n/bagla KOD - Magazaya baglan\n/durum - Aktif durum\n/iptal - Bildirimleri iptal et\n/yardim - Bu mesaj",
		UnknownCommand: "Bilinmeyen komut. /yardim yazarak komutlari gorebilirsin.",
	},
	"en": {
		NewOrder:       "New Order",
		Customer:       "Customer",
		Phone:          "Phone",
		Total:          "Total",
		Products:       "Products",
		Date:           "Date",
		Unknown:        "Unknown",
		NoProducts:     "No product information available",
		OrderDataError: "Order data could not be read",

		WelcomeBack:    "Welcome back %s!\n\nYour active store: %s\n\nCommands:\n/durum - Show linked store\n/iptal - Cancel notifications\n/yardim - Help",
		Welcome:        "Welcome %s!\n\nThis bot relays order notifications.\n\nTo link your store:\n/bagla CODE\n\nUse the link code you received from your store.",
		LinkedNew:      "Linked successfully!\n\nStore: %s\n\nYou will now receive notifications for new orders.",
		LinkedSwitched: "Store switched!\n\nNew store: %s\n\nYou will now receive this store's orders.",
		InvalidCode:    "Invalid code: %s\n\nPlease enter the correct code or request a new one from your store.",
		StatusActive:   "You are active\n\nStore: %s\nLinked since: %s\n\nOrder notifications are on.",
		StatusNone:     "You are not linked to a store yet.\n\nTo link:\n/bagla CODE",
		Cancelled:      "Notifications cancelled.\n\nYou will no longer receive notifications from %s.\n\nUse /bagla to link again.",
		NotLinked:      "You are not linked to a store.",
		Help:           "Commands\n\n/start - Start\n/bagla CODE - Link to a store\n/durum - Current status\n/iptal - Cancel notifications\n/yardim - This message",
		UnknownCommand: "Unknown command. Type /yardim to see the commands.",
	},
}

// Locale returns the message table for a language code, falling back to
// the default silently for unknown codes.
func Locale(lang string) Messages {
	if m, ok := locales[lang]; ok {
		return m
	}
	return locales[DefaultLang]
}
