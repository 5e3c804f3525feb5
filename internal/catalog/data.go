package catalog

import "github.com/hmweb77/macaroness/internal/model"

var defaultBoxes = []model.BoxSize{
	{Pieces: 6, Price: 25, Label: "6 pcs", MaxFlavors: 0, RegionRestricted: true},
	{Pieces: 12, Price: 50, Label: "12 pcs", MaxFlavors: 0, RegionRestricted: true},
	{Pieces: 24, Price: 95, Label: "24 pcs", MaxFlavors: 6},
	{Pieces: 36, Price: 135, Label: "36 pcs", MaxFlavors: 9, BestSeller: true},
}

var defaultFlavors = []model.Flavor{
	{Name: "Chewing-gum", NameAr: "علكة"},
	{Name: "Citron", NameAr: "ليمون"},
	{Name: "Fraise", NameAr: "فراولة"},
	{Name: "Pêche", NameAr: "خوخ"},
	{Name: "Chocolat", NameAr: "شوكولاتة"},
	{Name: "Orange", NameAr: "برتقال"},
	{Name: "Framboise", NameAr: "توت العليق"},
	{Name: "Vanille", NameAr: "فانيليا"},
	{Name: "Pistache", NameAr: "فستق"},
	{Name: "Caramel", NameAr: "كراميل"},
	{Name: "Café", NameAr: "قهوة"},
	{Name: "Abricot", NameAr: "مشمش"},
}

// Cities are listed north to south; 48h destinations come last.
var defaultCities = []model.City{
	{Name: "Tanger", NameAr: "طنجة", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Tétouan", NameAr: "تطوان", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Larache", NameAr: "العرائش", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Kénitra", NameAr: "القنيطرة", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Rabat", NameAr: "الرباط", DeliveryHours: 24, DeliveryPrice: 30, InRegion: true},
	{Name: "Salé", NameAr: "سلا", DeliveryHours: 24, DeliveryPrice: 30, InRegion: true},
	{Name: "Témara", NameAr: "تمارة", DeliveryHours: 24, DeliveryPrice: 30, InRegion: true},
	{Name: "Salé El Jadida", NameAr: "سلا الجديدة", DeliveryHours: 24, DeliveryPrice: 30, InRegion: true},
	{Name: "Tamesna", NameAr: "تامسنا", DeliveryHours: 24, DeliveryPrice: 30, InRegion: true},
	{Name: "Ain Atik", NameAr: "عين عتيق", DeliveryHours: 24, DeliveryPrice: 30, InRegion: true},
	{Name: "Ain Aouda", NameAr: "عين عودة", DeliveryHours: 24, DeliveryPrice: 30, InRegion: true},
	{Name: "Harhoura", NameAr: "الهرهورة", DeliveryHours: 24, DeliveryPrice: 30, InRegion: true},
	{Name: "Casablanca", NameAr: "الدار البيضاء", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Mohammedia", NameAr: "المحمدية", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "El Jadida", NameAr: "الجديدة", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Safi", NameAr: "آسفي", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Essaouira", NameAr: "الصويرة", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Marrakech", NameAr: "مراكش", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Agadir", NameAr: "أكادير", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Fès", NameAr: "فاس", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Meknès", NameAr: "مكناس", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Ifrane", NameAr: "إفران", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Khouribga", NameAr: "خريبكة", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Beni Mellal", NameAr: "بني ملال", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Settat", NameAr: "سطات", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Berrechid", NameAr: "برشيد", DeliveryHours: 24, DeliveryPrice: 40},
	{Name: "Oujda", NameAr: "وجدة", DeliveryHours: 48, DeliveryPrice: 40},
	{Name: "Nador", NameAr: "الناظور", DeliveryHours: 48, DeliveryPrice: 40},
	{Name: "Ouarzazate", NameAr: "ورزازات", DeliveryHours: 48, DeliveryPrice: 45},
	{Name: "Errachidia", NameAr: "الراشيدية", DeliveryHours: 48, DeliveryPrice: 40},
	{Name: "Zagora", NameAr: "زاكورة", DeliveryHours: 48, DeliveryPrice: 45},
	{Name: "Tan-Tan", NameAr: "طانطان", DeliveryHours: 48, DeliveryPrice: 45},
	{Name: "Laâyoune", NameAr: "العيون", DeliveryHours: 48, DeliveryPrice: 45},
	{Name: "Dakhla", NameAr: "الداخلة", DeliveryHours: 48, DeliveryPrice: 45},
	{Name: "Guelmim", NameAr: "كلميم", DeliveryHours: 48, DeliveryPrice: 45},
	{Name: "Taroudant", NameAr: "تارودانت", DeliveryHours: 48, DeliveryPrice: 45},
	{Name: "Tiznit", NameAr: "تيزنيت", DeliveryHours: 48, DeliveryPrice: 45},
}
