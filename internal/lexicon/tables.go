package lexicon

// Duplicate detection uses a smaller stop-word list than summarization.
var dedupStopWords = []string{
	"ve", "ile", "veya", "ama", "ancak", "için", "gibi", "kadar",
	"bir", "bu", "şu", "o", "ki", "de", "da", "olan", "olarak",
	"daha", "çok", "en", "her", "var", "yok", "ne", "nasıl", "neden", "nerede",
}

var summaryStopWords = []string{
	"ve", "ile", "veya", "ama", "ancak", "fakat", "çünkü", "için", "gibi", "kadar",
	"bir", "bu", "şu", "o", "ki", "de", "da", "mi", "mı", "mu", "mü",
	"olan", "olarak", "daha", "çok", "en", "her", "bazı", "hiç", "şey",
	"ben", "sen", "biz", "siz", "onlar", "bunu", "şunu", "onu",
	"var", "yok", "evet", "hayır", "ne", "nasıl", "neden", "niçin", "nerede",
	"hangi", "hangisi", "kim", "kimin", "şöyle", "böyle", "işte", "yani",
	"ya", "hem", "hep", "artık", "henüz", "sadece", "yalnız", "tüm", "bütün",
}

// "gelişme" is left out on purpose: headlines use it for any development.
var positiveWords = []string{
	"başarı", "başarılı", "güzel", "harika", "mükemmel", "olumlu", "artış",
	"yükseliş", "kazanç", "kar", "ilerleme", "büyüme", "rekor",
	"zafer", "mutlu", "sevindirici", "umut", "umutlu", "iyi", "iyileşme",
	"pozitif", "destek", "destekli", "avantaj", "fırsat", "yenilik",
	"yenilikçi", "verimli", "verimlilik", "kaliteli", "güçlü", "sağlam",
	"istikrar", "istikrarlı", "barış", "huzur", "refah", "zengin", "zenginlik",
	"övgü", "takdir", "ödül", "başarım", "kazanım", "atılım", "zirve", "lider",
	"liderlik", "çözüm", "anlaşma", "uzlaşma", "işbirliği", "dayanışma", "yardım",
}

var negativeWords = []string{
	"kötü", "olumsuz", "düşüş", "azalış", "kayıp", "zarar", "kriz", "sorun",
	"problem", "tehlike", "tehlikeli", "risk", "riskli", "endişe", "kaygı",
	"korku", "panik", "çöküş", "iflas", "başarısız", "başarısızlık", "felaket",
	"yıkım", "yıkıcı", "ölüm", "öldü", "saldırı", "savaş", "çatışma", "terör",
	"şiddet", "suç", "suçlu", "tutuklandı", "hapis", "ceza", "yasak",
	"yasaklandı", "iptal", "ertelendi", "durduruldu", "engel", "engellendi",
	"reddedildi", "protesto", "grev", "enflasyon", "işsizlik", "yoksulluk",
	"fakir", "hastalık", "salgın", "virüs", "deprem", "sel", "yangın", "kaza",
	"çarpışma", "patlama", "acı", "üzücü", "trajedi", "trajik", "vahşet",
	"cinayet", "taciz", "istismar", "yolsuzluk", "rüşvet", "skandal", "ihanet",
}

var intensifierWords = map[string]float64{
	"çok":        1.5,
	"son derece": 2.0,
	"aşırı":      1.8,
	"oldukça":    1.3,
	"fazla":      1.4,
	"büyük":      1.3,
	"dev":        1.5,
	"devasa":     1.6,
	"muazzam":    1.7,
	"korkunç":    1.6,
	"inanılmaz":  1.5,
	"şiddetli":   1.5,
	"ağır":       1.4,
	"ciddi":      1.4,
	"kritik":     1.5,
}

var negatorWords = []string{
	"değil", "yok", "olmadan", "dışında", "hariç", "asla", "hiç", "hiçbir",
}
